package browser

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of simultaneously open tabs in a session.
// Acquire blocks when the session is at capacity; this is back-pressure,
// not failure, so there is no default timeout. Callers that need one
// wrap the context themselves.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
}

// NewGate creates a gate admitting up to capacity concurrent holders.
func NewGate(capacity int) *Gate {
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire takes one slot, blocking until one is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire takes one slot without blocking, reporting success.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns one slot. Each acquired slot must be released exactly
// once; the tab lifecycle guards this with its own once semantics.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Capacity returns the configured maximum number of holders.
func (g *Gate) Capacity() int {
	return int(g.capacity)
}
