package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Go after Shutdown has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted tasks on their own goroutines, at most size at a time.
// Tasks beyond the limit wait for a slot without blocking the submitter.
type Pool struct {
	size int
	sem  *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	queued  atomic.Int64
	running atomic.Int64
}

// NewPool creates a Pool that runs at most size tasks concurrently (minimum 1).
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:   size,
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

// Go schedules task and returns immediately. The task's context is cancelled
// when the pool shuts down. A task still waiting for a slot at shutdown is
// run with the already-cancelled context so it can record its own outcome.
func (p *Pool) Go(task func(ctx context.Context)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	p.queued.Add(1)
	go func() {
		defer p.wg.Done()

		err := p.sem.Acquire(p.ctx, 1)
		p.queued.Add(-1)
		if err != nil {
			task(p.ctx)
			return
		}
		defer p.sem.Release(1)

		p.running.Add(1)
		defer p.running.Add(-1)
		task(p.ctx)
	}()
	return nil
}

// Stats returns the number of tasks waiting for a slot and currently running.
func (p *Pool) Stats() (queued, running int) {
	return int(p.queued.Load()), int(p.running.Load())
}

// Shutdown stops accepting tasks, cancels running ones and waits for all of
// them to return or for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every submitted task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
