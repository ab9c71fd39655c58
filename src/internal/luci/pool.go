package luci

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of outbound HTTP calls in flight across every
// router instance in the process. A nil Pool imposes no limit.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool allowing size concurrent requests (minimum 1).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.sem.Acquire(ctx, 1)
}

// Release returns a slot taken by Acquire.
func (p *Pool) Release() {
	if p == nil {
		return
	}
	p.sem.Release(1)
}

// Size returns the configured number of slots.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.size
}
