package concurrent

import "github.com/terrapage/terrapage/internal/profile"

// WorkerContext is created once per worker goroutine and threaded through
// every job that goroutine runs. It replaces the thread-local singleton the
// original intersectingKeys memoization relied on (Go has no language-level
// thread-local storage) with an explicit, per-worker cache.
type WorkerContext struct {
	intersectCache profile.IntersectCache
}

func NewWorkerContext() *WorkerContext {
	return &WorkerContext{}
}

// IntersectCache returns this worker's single-entry TileKey.IntersectingKeys
// memoization slot.
func (wc *WorkerContext) IntersectCache() *profile.IntersectCache {
	return &wc.intersectCache
}
