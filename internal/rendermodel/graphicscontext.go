// Package rendermodel turns a merged tilemodel.TileModel into the opaque GPU
// descriptor slots a TileNode renders from, and handles parent-to-child
// inheritance by scale/bias so a child is immediately drawable as a
// downscaled view of its parent until its own data arrives.
package rendermodel

import "github.com/terrapage/terrapage/internal/raster"

// TextureHandle is whatever a GraphicsContext implementation uses to refer
// to an uploaded texture. The core never inspects it.
type TextureHandle any

// BindCommand is the opaque descriptor set a GraphicsContext compiles for
// one tile: the current color/elevation texture handles plus the uniform
// block computed from them. Consumers type-assert it to their own GPU
// binding type if they need to read it back; the core only ever passes it
// through Compile/Dispose.
type BindCommand struct {
	Color     TextureHandle
	Elevation TextureHandle
	Uniforms  Uniforms
}

// Cancelable is polled by long-running jobs (loads, child creation) so they
// can return early without applying a render-model change. pager.Entry
// satisfies this via its Canceled method.
type Cancelable interface {
	Canceled() bool
}

// GraphicsContext is the core's only contact with a concrete GPU backend.
// The core emits "prepare" and "dispose" requests against this interface;
// it never records command buffers or touches shader source itself.
type GraphicsContext interface {
	// Compile submits a BindCommand for GPU upload.
	Compile(bind BindCommand)
	// Dispose schedules an old descriptor (a previously returned
	// TextureHandle or BindCommand) for safe deferred teardown.
	Dispose(old any)
	// OnNextUpdate queues fn to run on the render thread at the next safe
	// update point, ordered by priority (lower runs first).
	OnNextUpdate(fn func(), priority float64)
	// RequestFrame marks the scene dirty so a frame is drawn even if
	// nothing else changed.
	RequestFrame()
	// WrapImage takes ownership of image's raster bytes and returns a
	// handle to the uploaded texture.
	WrapImage(image *raster.GeoImage) (TextureHandle, error)
}
