package rendermodel

import (
	"sync"
	"time"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/spatial"
)

// TileNode is a rendering tile: a TileKey, its current render model, a
// surface bounding volume, an optional quad of children, and traversal
// bookkeeping. A non-root TileNode's initial render model equals its
// parent's render model composed with the child's scale-bias, so the tile
// is renderable immediately as a downscaled view of the parent until its
// own data arrives.
type TileNode struct {
	mu sync.RWMutex

	Key      profile.TileKey
	Parent   *TileNode
	Children [4]*TileNode

	renderModel RenderModel
	bounds      spatial.Extent

	LastTraversalFrame int64
	LastTraversalRange float64
	LastTraversalTime  time.Time
	DoNotExpire        bool
	Revision           int
}

// NewTileNode creates a root TileNode with a zero-value render model; it
// must be populated by updateRenderModel once its own data loads.
func NewTileNode(key profile.TileKey) *TileNode {
	return &TileNode{Key: key, bounds: key.Extent()}
}

// RenderModel returns a snapshot of the node's current render model.
func (n *TileNode) RenderModel() RenderModel {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.renderModel
}

func (n *TileNode) setRenderModel(m RenderModel) {
	n.mu.Lock()
	n.renderModel = m
	n.mu.Unlock()
}

// Bounds returns the node's current surface bounding volume.
func (n *TileNode) Bounds() spatial.Extent {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.bounds
}

func (n *TileNode) setBounds(b spatial.Extent) {
	n.mu.Lock()
	n.bounds = b
	n.mu.Unlock()
}

// NewChild creates (but does not attach) the TileNode for the given
// quadrant, with its render model inherited from n.
func (n *TileNode) NewChild(quadrant int) *TileNode {
	childKey := n.Key.CreateChildKey(quadrant)
	child := &TileNode{Key: childKey, Parent: n}
	child.inheritFrom(n)
	return child
}

// inheritFrom computes the quadrant's scale-bias matrix, copies the
// parent's render model with each texture matrix composed by it, and
// updates the surface bounding volume from the inherited (lower-
// resolution) elevation — so the child can be drawn immediately, before its
// own loadData completes.
func (n *TileNode) inheritFrom(parent *TileNode) {
	scaleBias := n.Key.ScaleBiasMatrix()
	parentModel := parent.RenderModel()

	inherited := parentModel.Clone()
	inherited.Color.Matrix = scaleBias.Mul(parentModel.Color.Matrix)
	inherited.Elevation.Matrix = scaleBias.Mul(parentModel.Elevation.Matrix)
	inherited.Uniforms.ColorMatrix = inherited.Color.Matrix
	inherited.Uniforms.ElevationMatrix = inherited.Elevation.Matrix

	n.setRenderModel(inherited)
	n.setBounds(n.Key.Extent())
}

// AttachChildren installs the four inherited child nodes as n's quad,
// typically called from a GraphicsContext.OnNextUpdate callback once
// createChildren has run for n.
func (n *TileNode) AttachChildren() [4]*TileNode {
	var children [4]*TileNode
	for q := 0; q < 4; q++ {
		children[q] = n.NewChild(q)
	}
	n.mu.Lock()
	n.Children = children
	n.mu.Unlock()
	return children
}

// HasChildren reports whether n's quad has been attached.
func (n *TileNode) HasChildren() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.Children[0] != nil
}
