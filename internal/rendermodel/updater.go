package rendermodel

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/terrapage/terrapage/internal/pager"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/status"
)

// placeholderTint is the flat tint used for the root-case placeholder
// texture: a neutral gray that reads as "loading" rather than any
// particular terrain color.
var placeholderTint = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// Updater owns the live TileNode tree and wires a Pager's OnTileReady/
// OnTileEvicted callbacks to updateRenderModel, so every merged TileModel
// ends up compiled against a GraphicsContext and every evicted entry has its
// GPU resources disposed.
type Updater struct {
	ctx GraphicsContext

	mu    sync.Mutex
	nodes map[string]*TileNode

	placeholderMu sync.Mutex
	placeholders  map[raster.Format]*raster.GeoImage

	Logger *slog.Logger
}

// NewUpdater creates an Updater that compiles against ctx. Pass the
// resulting OnTileReady/OnTileEvicted methods as pager.Options callbacks.
func NewUpdater(ctx GraphicsContext) *Updater {
	return &Updater{
		ctx:          ctx,
		nodes:        make(map[string]*TileNode),
		placeholders: make(map[raster.Format]*raster.GeoImage),
	}
}

func (u *Updater) log() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

// Node returns the live TileNode for key, if one has been created.
func (u *Updater) Node(key profile.TileKey) (*TileNode, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n, ok := u.nodes[key.String()]
	return n, ok
}

func (u *Updater) nodeFor(e *pager.Entry) *TileNode {
	u.mu.Lock()
	defer u.mu.Unlock()

	k := e.Key.String()
	if n, ok := u.nodes[k]; ok {
		return n
	}

	var parent *TileNode
	if e.Parent != nil {
		parent = u.nodes[e.Parent.Key.String()]
	}

	var n *TileNode
	if parent != nil {
		n = parent.NewChild(e.Key.Quadrant())
		n.Parent = parent
		parent.mu.Lock()
		parent.Children[e.Key.Quadrant()] = n
		parent.mu.Unlock()
	} else {
		n = NewTileNode(e.Key)
	}
	u.nodes[k] = n
	return n
}

// placeholder returns (creating once, lazily) the reusable placeholder
// GeoImage for format, used only when a tile has no color data of its own
// and no ancestor render model to inherit from (the root case).
func (u *Updater) placeholder(format raster.Format, size int) *raster.GeoImage {
	u.placeholderMu.Lock()
	defer u.placeholderMu.Unlock()
	if img, ok := u.placeholders[format]; ok {
		return img
	}
	img := &raster.GeoImage{
		Image: raster.GeneratePlaceholder(size, size, placeholderTint, 1.5),
	}
	u.placeholders[format] = img
	return img
}

// OnTileReady is a pager.Options.OnTileReady callback: it resolves (or
// creates) e's TileNode, substitutes the placeholder texture when e has no
// color data and no parent to inherit from, runs updateRenderModel, and
// queues the swap for the render thread via GraphicsContext.OnNextUpdate.
func (u *Updater) OnTileReady(e *pager.Entry) {
	tm := e.Model()
	if tm == nil {
		return
	}

	node := u.nodeFor(e)

	effective := *tm
	if effective.Color == nil && node.Parent == nil {
		size := 1
		if effective.Elevation != nil {
			size = effective.Elevation.Image.Width()
		}
		effective.Color = u.placeholder(raster.R8G8B8A8Srgb, max(size, 2))
	}

	old := node.RenderModel()
	next, err := updateRenderModel(old, &effective, u.ctx)
	if err != nil {
		if status.CodeOf(err) != status.Canceled {
			u.log().Warn("render model update failed", "key", e.Key.String(), "error", err)
		}
		return
	}

	priority := e.Priority()
	u.ctx.OnNextUpdate(func() {
		node.setRenderModel(next)
		node.Revision++
		u.ctx.RequestFrame()
	}, priority)
}

// OnTileEvicted is a pager.Options.OnTileEvicted callback: it disposes the
// evicted entry's GPU resources and detaches its TileNode from the tree.
func (u *Updater) OnTileEvicted(e *pager.Entry) {
	u.mu.Lock()
	k := e.Key.String()
	node, ok := u.nodes[k]
	if ok {
		delete(u.nodes, k)
	}
	u.mu.Unlock()
	if !ok {
		return
	}

	model := node.RenderModel()
	if model.Color.Handle != nil {
		u.ctx.Dispose(model.Color.Handle)
	}
	if model.Elevation.Handle != nil {
		u.ctx.Dispose(model.Elevation.Handle)
	}

	if node.Parent != nil {
		node.Parent.mu.Lock()
		if node.Parent.Children[e.Key.Quadrant()] == node {
			node.Parent.Children[e.Key.Quadrant()] = nil
		}
		node.Parent.mu.Unlock()
	}
}
