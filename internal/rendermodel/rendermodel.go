package rendermodel

import (
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/tilemodel"
)

// Uniforms is the per-tile uniform block a GraphicsContext compiles
// alongside the texture handles.
type Uniforms struct {
	ElevationMatrix spatial.Matrix3
	ColorMatrix     spatial.Matrix3
	ModelMatrix     spatial.Matrix3
	MinHeight       float64
	MaxHeight       float64
}

// TextureSlot pairs an uploaded texture handle with the texture-coordinate
// matrix a shader uses to sample it (identity for a tile's own data,
// otherwise a composed scale-bias when the slot is inherited from an
// ancestor).
type TextureSlot struct {
	Handle TextureHandle
	Matrix spatial.Matrix3
}

// RenderModel is the GPU-facing state of one TileNode: its current texture
// slots, the uniform block built from them, and the last compiled bind
// command. It never holds concrete GPU types, only context-opaque handles.
type RenderModel struct {
	Color     TextureSlot
	Elevation TextureSlot
	Uniforms  Uniforms
	Bind      BindCommand
}

// Clone copies m by value, including its handles (the handles themselves
// are not duplicated on the GPU; both copies alias the same resource until
// one of them is replaced).
func (m RenderModel) Clone() RenderModel {
	return m
}

func heightRange(h *raster.GeoHeightfield) (min, max float64) {
	if h == nil || h.Image == nil {
		return 0, 0
	}
	img := h.Image
	first := true
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.IsNoData(x, y) {
				continue
			}
			v, _, _, _ := img.At(x, y)
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if first {
		return 0, 0
	}
	return min, max
}

// updateRenderModel implements the updater contract: copy the old model by
// value, replace the color/elevation slots whose tile data changed
// (disposing the previous handle), rebuild the uniform block, and compile a
// fresh bind command.
func updateRenderModel(old RenderModel, tm *tilemodel.TileModel, ctx GraphicsContext) (RenderModel, error) {
	next := old.Clone()

	if tm.Color != nil {
		handle, err := ctx.WrapImage(tm.Color)
		if err != nil {
			return old, err
		}
		if old.Color.Handle != nil {
			ctx.Dispose(old.Color.Handle)
		}
		next.Color = TextureSlot{Handle: handle, Matrix: tm.ColorMatrix}
	}

	if tm.Elevation != nil {
		minH, maxH := heightRange(tm.Elevation)
		elevImg := &raster.GeoImage{Image: tm.Elevation.Image, Extent: tm.Elevation.Extent}
		handle, err := ctx.WrapImage(elevImg)
		if err != nil {
			return old, err
		}
		if old.Elevation.Handle != nil {
			ctx.Dispose(old.Elevation.Handle)
		}
		next.Elevation = TextureSlot{Handle: handle, Matrix: tm.ElevationMatrix}
		next.Uniforms.MinHeight = minH
		next.Uniforms.MaxHeight = maxH
	}

	next.Uniforms.ColorMatrix = next.Color.Matrix
	next.Uniforms.ElevationMatrix = next.Elevation.Matrix

	next.Bind = BindCommand{Color: next.Color.Handle, Elevation: next.Elevation.Handle, Uniforms: next.Uniforms}
	ctx.Compile(next.Bind)

	return next, nil
}
