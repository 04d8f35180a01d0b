package resilience

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures the in-flight request cap.
type BulkheadConfig struct {
	// MaxInFlight is the maximum number of concurrent operations.
	// Default: 10
	MaxInFlight int

	// Wait blocks for a slot instead of failing immediately when the
	// bulkhead is full. Cancellation of the caller's context ends the
	// wait.
	Wait bool
}

// Bulkhead caps concurrent partner calls so batch fan-out cannot exhaust
// the connection pool.
type Bulkhead struct {
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu       sync.Mutex
	active   int
	rejected int64
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 10
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxInFlight)),
	}
}

// Execute runs op while holding a bulkhead slot. Returns ErrBulkheadFull
// when no slot is available and waiting is disabled.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if b.config.Wait {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	} else if !b.sem.TryAcquire(1) {
		b.mu.Lock()
		b.rejected++
		b.mu.Unlock()
		return ErrBulkheadFull
	}
	defer b.sem.Release(1)

	b.mu.Lock()
	b.active++
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	}()

	return op(ctx)
}

// Active returns the number of operations currently holding a slot.
func (b *Bulkhead) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Rejected returns the number of operations turned away at capacity.
func (b *Bulkhead) Rejected() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejected
}
