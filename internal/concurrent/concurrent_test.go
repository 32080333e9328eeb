package concurrent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewPool(context.Background(), "rocky::terrain_loader", 4)
	defer pool.Close()

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		ok := pool.Submit(func(ctx context.Context, wc *WorkerContext) {
			defer wg.Done()
			atomic.AddInt64(&count, 1)
		})
		require.True(t, ok)
	}
	wg.Wait()
	require.Equal(t, int64(50), atomic.LoadInt64(&count))
	require.Equal(t, "rocky::terrain_loader", pool.Name())
}

func TestPoolRejectsAfterClose(t *testing.T) {
	pool := NewPool(context.Background(), "test-pool", 1)
	pool.Close()
	ok := pool.Submit(func(ctx context.Context, wc *WorkerContext) {})
	require.False(t, ok)
}

func TestPoolCancellationStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, "test-pool", 2)

	started := make(chan struct{})
	blocked := make(chan struct{})
	pool.Submit(func(ctx context.Context, wc *WorkerContext) {
		close(started)
		<-ctx.Done()
		close(blocked)
	})
	<-started
	cancel()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
	pool.Close()
}

func TestGateDeduplicatesConcurrentCalls(t *testing.T) {
	g := NewGate()
	var calls int64

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, _ := g.Do("same-key", func() (any, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return 42, nil
			})
			results[idx] = v.(int)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for _, r := range results {
		require.Equal(t, 42, r)
	}
	require.False(t, g.InFlight("same-key"))
}

func TestWorkerContextIntersectCacheIsolated(t *testing.T) {
	wc1 := NewWorkerContext()
	wc2 := NewWorkerContext()
	require.NotSame(t, wc1.IntersectCache(), wc2.IntersectCache())
}
