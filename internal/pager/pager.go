// Package pager implements the resident tile table and deferred job
// pipeline (createChildren/loadData/mergeData/updateData) that keeps tile
// data flowing to the render model as the view traverses the quadtree,
// adapted from the teacher's parallel tile-generation worker pool and its
// on-demand per-tile in-flight tracking.
package pager

import (
	"context"
	"sync"

	"github.com/terrapage/terrapage/internal/concurrent"
	"github.com/terrapage/terrapage/internal/layer"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/status"
	"github.com/terrapage/terrapage/internal/tilemodel"
)

// DefaultPoolName is the named worker pool every Pager submits its jobs to
// unless a caller supplies its own pool.
const DefaultPoolName = "rocky::terrain_loader"

// DefaultConcurrency is the worker count for a Pager's own pool when none is
// supplied.
const DefaultConcurrency = 6

// Options configures a Pager.
type Options struct {
	MaxResident  int
	TileModel    tilemodel.Options
	OnTileReady  func(*Entry) // invoked once an entry reaches stageUpdated
	OnTileEvicted func(*Entry)
}

// Pager owns the resident tile table, the LRU tracker, and the job pipeline
// that turns a Ping into a fully merged TileModel.
type Pager struct {
	mu      sync.Mutex
	table   map[string]*Entry
	tracker tracker

	layerMap *layer.Map
	pool     *concurrent.Pool
	ownsPool bool
	gate     *concurrent.Gate

	opts Options
}

// New creates a Pager backed by its own "rocky::terrain_loader" pool at
// DefaultConcurrency. Call Close to stop the pool.
func New(ctx context.Context, layerMap *layer.Map, opts Options) *Pager {
	pool := concurrent.NewPool(ctx, DefaultPoolName, DefaultConcurrency)
	p := NewWithPool(layerMap, pool, opts)
	p.ownsPool = true
	return p
}

// NewWithPool creates a Pager that submits its jobs to an existing pool
// (e.g. one shared across several maps).
func NewWithPool(layerMap *layer.Map, pool *concurrent.Pool, opts Options) *Pager {
	if opts.MaxResident <= 0 {
		opts.MaxResident = 4096
	}
	if opts.TileModel.TileSize <= 0 {
		opts.TileModel = tilemodel.DefaultOptions()
	}
	return &Pager{
		table:    make(map[string]*Entry),
		layerMap: layerMap,
		pool:     pool,
		gate:     concurrent.NewGate(),
		opts:     opts,
	}
}

// Close stops the pager's own pool, if it owns one.
func (p *Pager) Close() {
	if p.ownsPool {
		p.pool.Close()
	}
}

// Ping records a traversal touch on key: creating its Entry if new, moving
// it to the front of the LRU tracker, and kicking off the load pipeline the
// first time the key is seen. traversalRange is the viewer-relative metric
// (e.g. distance or screen-space error) the priority function uses.
func (p *Pager) Ping(key profile.TileKey, traversalRange float64) *Entry {
	k := key.String()

	p.mu.Lock()
	e, ok := p.table[k]
	if !ok {
		var parent *Entry
		if key.Level > 0 {
			parent = p.table[key.CreateParentKey().String()]
		}
		e = newEntry(key, parent)
		p.table[k] = e
		p.tracker.pushFront(e)
		p.evictLocked()
	} else {
		p.tracker.moveToFront(e)
	}
	p.mu.Unlock()

	e.setLastTraversalRange(traversalRange)
	p.maybeScheduleLoad(e)
	return e
}

// Get returns the resident entry for key, if any, without touching the
// tracker or starting a load.
func (p *Pager) Get(key profile.TileKey) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.table[key.String()]
	return e, ok
}

// ResidentCount returns the number of entries currently tracked.
func (p *Pager) ResidentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.count
}

// evictLocked removes least-recently-touched entries while over capacity.
// Callers must hold p.mu.
func (p *Pager) evictLocked() {
	for p.tracker.count > p.opts.MaxResident {
		victim := p.tracker.evictCandidate()
		if victim == nil {
			return
		}
		victim.Cancel()
		p.tracker.unlink(victim)
		delete(p.table, victim.Key.String())
		if p.opts.OnTileEvicted != nil {
			p.opts.OnTileEvicted(victim)
		}
	}
}

// maybeScheduleLoad transitions e from stageNew to stageQueued exactly once
// and, if its parent (when any) has already merged, submits the loadData
// job; otherwise it registers e as pending on the parent's merge.
func (p *Pager) maybeScheduleLoad(e *Entry) {
	if !e.stage.CompareAndSwap(int32(stageNew), int32(stageQueued)) {
		return
	}
	if e.Parent != nil && e.Parent.Stage() < stageMerged {
		e.Parent.addPendingChild(e)
		return
	}
	p.submitLoad(e)
}

func (p *Pager) submitLoad(e *Entry) {
	p.pool.Submit(func(ctx context.Context, wc *concurrent.WorkerContext) {
		if e.Canceled() {
			return
		}
		_, _ = p.gate.Do("load:"+e.Key.String(), func() (any, error) {
			tm, err := tilemodel.Create(ctx, wc, p.layerMap, e.Key, p.opts.TileModel)
			if err != nil {
				return nil, err
			}
			if e.Canceled() {
				return nil, status.New(status.Canceled, "entry %s canceled during load", e.Key)
			}
			e.stage.Store(int32(stageLoaded))
			p.submitCreateChildren(e)
			p.submitMerge(e, tm)
			return tm, nil
		})
	})
}

// submitCreateChildren precomputes the four child key/scale-bias slots once
// e's own data has loaded. It does not wait for e's merge: a render model
// can display a child inheriting the parent's not-yet-replaced imagery via
// these slots the instant they're ready.
func (p *Pager) submitCreateChildren(e *Entry) {
	p.pool.Submit(func(ctx context.Context, wc *concurrent.WorkerContext) {
		if e.Canceled() || e.Stage() < stageLoaded {
			return
		}
		var slots [4]ChildSlot
		for q := 0; q < 4; q++ {
			child := e.Key.CreateChildKey(q)
			slots[q] = ChildSlot{Key: child, ScaleBias: child.ScaleBiasMatrix(), Ready: true}
		}
		e.setChildSlots(slots)
	})
}

// submitMerge installs tm as e's data, marks e merged, releases any
// children that were waiting on this merge to start their own loadData, and
// schedules updateData.
func (p *Pager) submitMerge(e *Entry, tm *tilemodel.TileModel) {
	p.pool.Submit(func(ctx context.Context, wc *concurrent.WorkerContext) {
		if e.Canceled() {
			return
		}
		e.setModel(tm)
		e.stage.Store(int32(stageMerged))

		for _, child := range e.takePendingChildren() {
			if !child.Canceled() {
				p.submitLoad(child)
			}
		}

		p.submitUpdate(e)
	})
}

// submitUpdate runs the final pipeline stage: handing the merged entry to
// whatever external consumer (typically the render model) registered
// OnTileReady.
func (p *Pager) submitUpdate(e *Entry) {
	p.pool.Submit(func(ctx context.Context, wc *concurrent.WorkerContext) {
		if e.Canceled() {
			return
		}
		e.stage.Store(int32(stageUpdated))
		if p.opts.OnTileReady != nil {
			p.opts.OnTileReady(e)
		}
	})
}
