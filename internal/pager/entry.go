package pager

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/tilemodel"
)

// stage tracks an Entry's position in the createChildren/loadData/
// mergeData/updateData pipeline.
type stage int32

const (
	stageNew stage = iota
	stageQueued
	stageLoaded
	stageMerged
	stageUpdated
)

// ChildSlot is a precomputed child reference: the key and the scale-bias
// matrix a render model uses to sample the parent's texture until the
// child's own data arrives, computed once the parent's createChildren job
// has run.
type ChildSlot struct {
	Key       profile.TileKey
	ScaleBias spatial.Matrix3
	Ready     bool
}

// Entry is the pager's resident record for one TileKey: its place in the
// tracker (MRU/LRU) list, its pipeline stage, and (once merged) its data.
type Entry struct {
	Key    profile.TileKey
	Parent *Entry

	stage    atomic.Int32
	canceled atomic.Bool

	mu                 sync.Mutex
	model              *tilemodel.TileModel
	children           [4]ChildSlot
	lastTraversalRange float64
	pendingChildren    []*Entry // children whose loadData is waiting on our merge

	prev, next *Entry // tracker linked-list, protected by Pager.mu
}

func newEntry(key profile.TileKey, parent *Entry) *Entry {
	e := &Entry{Key: key, Parent: parent}
	e.stage.Store(int32(stageNew))
	return e
}

func (e *Entry) Stage() stage { return stage(e.stage.Load()) }

func (e *Entry) Canceled() bool { return e.canceled.Load() }

func (e *Entry) Cancel() { e.canceled.Store(true) }

// Model returns the entry's merged tile data, or nil if not yet merged.
func (e *Entry) Model() *tilemodel.TileModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

func (e *Entry) setModel(tm *tilemodel.TileModel) {
	e.mu.Lock()
	e.model = tm
	e.mu.Unlock()
}

// LastTraversalRange returns the range recorded by the most recent Ping.
func (e *Entry) LastTraversalRange() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTraversalRange
}

func (e *Entry) setLastTraversalRange(r float64) {
	e.mu.Lock()
	e.lastTraversalRange = r
	e.mu.Unlock()
}

// ChildSlots returns the precomputed child references, valid once
// createChildren has run for this entry.
func (e *Entry) ChildSlots() [4]ChildSlot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.children
}

func (e *Entry) setChildSlots(slots [4]ChildSlot) {
	e.mu.Lock()
	e.children = slots
	e.mu.Unlock()
}

func (e *Entry) addPendingChild(child *Entry) {
	e.mu.Lock()
	e.pendingChildren = append(e.pendingChildren, child)
	e.mu.Unlock()
}

func (e *Entry) takePendingChildren() []*Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pendingChildren
	e.pendingChildren = nil
	return out
}

// Priority is the traversal-driven scheduling priority: lower values run
// first. The value is -(sqrt(range) * level): at equal range a higher LOD
// runs first, and at equal LOD a larger traversal range runs first.
func (e *Entry) Priority() float64 {
	r := e.LastTraversalRange()
	if r < 0 {
		r = 0
	}
	return -(math.Sqrt(r) * float64(e.Key.Level))
}
