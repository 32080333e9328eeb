// Package layer implements the data-layer graph: the base Layer lifecycle,
// TileLayer's spatial/LOD windowing, ImageLayer/ElevationLayer mosaic
// assembly with ancestor fallback, and the ordered Map that stacks layers
// for a tile-model composition.
package layer

import (
	"sync"

	"github.com/terrapage/terrapage/internal/status"
)

// Kind tags a layer's capability without requiring a type-switch up an
// inheritance chain (see SPEC_FULL.md §9's kind-tag replacement for the
// Layer -> TileLayer -> ImageLayer hierarchy).
type Kind int

const (
	KindImage Kind = iota
	KindElevation
)

func (k Kind) String() string {
	if k == KindElevation {
		return "elevation"
	}
	return "image"
}

// State is a layer's open/close lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateOpenFailed
)

// Base holds the fields and lifecycle common to every layer kind. Concrete
// layers embed Base and add their own data.
type Base struct {
	mu       sync.RWMutex
	uid      string
	name     string
	kind     Kind
	state    State
	revision int
	openErr  error
}

// NewBase constructs a closed Base with the given identity.
func NewBase(uid, name string, kind Kind) Base {
	return Base{uid: uid, name: name, kind: kind, state: StateClosed}
}

func (b *Base) UID() string  { return b.uid }
func (b *Base) Name() string { return b.name }
func (b *Base) Kind() Kind   { return b.kind }

func (b *Base) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Revision returns the monotonically increasing counter bumped every time
// the layer's configuration or backing data changes meaningfully.
func (b *Base) Revision() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// BumpRevision increments this layer's revision counter. Tile staleness
// (TileModel.Stale) compares only Map.Revision, so this counter does not
// mark the pager's resident tiles as stale.
func (b *Base) BumpRevision() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revision++
}

// Opener performs whatever setup a concrete layer needs (opening a source
// file, validating a remote endpoint) before it can be queried.
type Opener interface {
	Open() error
}

// Open transitions b from Closed to Open, invoking fn exactly once. It is
// a no-op if the layer is already open.
func (b *Base) Open(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		b.mu.Unlock()
		return nil
	}
	b.state = StateOpening
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = StateOpenFailed
		b.openErr = err
		return status.Wrap(status.ConfigurationError, err, "opening layer %q", b.name)
	}
	b.state = StateOpen
	return nil
}

// Close transitions b back to Closed, invoking fn if currently open.
func (b *Base) Close(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return
	}
	if fn != nil {
		fn()
	}
	b.state = StateClosed
}

func (b *Base) IsOpen() bool { return b.State() == StateOpen }
