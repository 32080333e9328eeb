package layer

import "sync"

// Map is an ordered stack of layers (bottom to top) plus the revision
// counter the pager watches to know when previously-built tile models are
// stale.
type Map struct {
	mu       sync.RWMutex
	images   []*ImageLayer
	elev     []*ElevationLayer
	revision int
}

func NewMap() *Map { return &Map{} }

// AddImageLayer appends an image layer to the top of the stack.
func (m *Map) AddImageLayer(l *ImageLayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, l)
	m.revision++
}

// AddElevationLayer appends an elevation layer; multiple elevation layers
// are tried in order, first match wins (see ElevationLayer fallback rule).
func (m *Map) AddElevationLayer(l *ElevationLayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elev = append(m.elev, l)
	m.revision++
}

// RemoveImageLayer removes l from the stack if present.
func (m *Map) RemoveImageLayer(l *ImageLayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.images {
		if x == l {
			m.images = append(m.images[:i], m.images[i+1:]...)
			m.revision++
			return
		}
	}
}

// ImageLayers returns a snapshot of the current image-layer stack.
func (m *Map) ImageLayers() []*ImageLayer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ImageLayer, len(m.images))
	copy(out, m.images)
	return out
}

// ElevationLayers returns a snapshot of the current elevation-layer stack.
func (m *Map) ElevationLayers() []*ElevationLayer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ElevationLayer, len(m.elev))
	copy(out, m.elev)
	return out
}

// Revision returns the map's current revision; it advances whenever a layer
// is added or removed. A layer's own BumpRevision does not change it.
func (m *Map) Revision() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}
