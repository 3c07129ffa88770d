package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of concurrent operations.
	// Default: 10
	MaxConcurrent int

	// MaxQueue is the maximum number of callers that may wait for a permit.
	// When the pool and the queue are both full, Acquire rejects
	// immediately without waiting.
	// Default: 0 (no queue)
	MaxQueue int

	// MaxWait is the maximum time a queued caller waits for a permit.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration

	// OnQueueDepth is called with the current queue depth whenever a caller
	// enters or leaves the wait queue. It is invoked while the bulkhead's
	// lock is held, so observers see each depth change in order; the hook
	// must not call back into the bulkhead.
	OnQueueDepth func(depth int)
}

// Bulkhead limits concurrent operations through a counting permit pool with
// an optional bounded FIFO wait queue. Waiters are served strictly in
// arrival order.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu        sync.Mutex
	active    int
	waiting   int
	maxActive int
	rejected  int64
}

// Permit is one unit of bulkhead capacity, transferred from the pool to a
// single caller. Release returns it exactly once; further calls are no-ops,
// so it is safe to release from both a defer and an explicit exit path.
type Permit struct {
	b        *Bulkhead
	released atomic.Bool
}

// Release returns the permit to the pool. Idempotent.
func (p *Permit) Release() {
	if p == nil || !p.released.CompareAndSwap(false, true) {
		return
	}
	p.b.sem.Release(1)
	p.b.mu.Lock()
	p.b.active--
	p.b.mu.Unlock()
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	// Apply defaults
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	if config.MaxQueue < 0 {
		config.MaxQueue = 0
	}

	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Acquire obtains a permit from the pool. If no permit is free the caller
// joins the FIFO wait queue when it has capacity, suspending up to MaxWait;
// otherwise ErrBulkheadFull is returned immediately. External cancellation
// abandons a pending wait without acquiring, returning ctx.Err().
func (b *Bulkhead) Acquire(ctx context.Context) (*Permit, error) {
	// Fast path: free permit and no earlier waiters.
	if b.sem.TryAcquire(1) {
		return b.granted(), nil
	}

	if b.config.MaxWait <= 0 || b.config.MaxQueue <= 0 {
		b.reject()
		return nil, ErrBulkheadFull
	}

	b.mu.Lock()
	if b.waiting >= b.config.MaxQueue {
		b.rejected++
		b.mu.Unlock()
		return nil, ErrBulkheadFull
	}
	b.waiting++
	b.notifyQueueDepthLocked()
	b.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
	err := b.sem.Acquire(waitCtx, 1)
	cancel()

	b.mu.Lock()
	b.waiting--
	b.notifyQueueDepthLocked()
	b.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled externally, not timed out in the queue.
			return nil, ctx.Err()
		}
		b.reject()
		return nil, ErrBulkheadFull
	}
	return b.granted(), nil
}

// Execute runs the operation within the bulkhead, releasing the permit on
// every exit path including panic unwinds.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	permit, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer permit.Release()

	return op(ctx)
}

func (b *Bulkhead) granted() *Permit {
	b.mu.Lock()
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
	return &Permit{b: b}
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// notifyQueueDepthLocked reports the current depth to the hook. Callers
// must hold b.mu.
func (b *Bulkhead) notifyQueueDepthLocked() {
	if b.config.OnQueueDepth != nil {
		b.config.OnQueueDepth(b.waiting)
	}
}

// Metrics returns current bulkhead statistics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.active,
		Waiting:       b.waiting,
		MaxActive:     b.maxActive,
		Available:     b.config.MaxConcurrent - b.active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	Waiting       int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
