package resilience

import "context"

// Executor composes the resilience layers into the single request choke
// point: rate limiter, then bulkhead, then circuit breaker, then retry,
// with the per-attempt timeout innermost. Layers left unconfigured are
// skipped.
type Executor struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor from the given layers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds admission control.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead adds an in-flight cap.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithCircuitBreaker adds the breaker gate.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds the retry layer.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout adds the per-attempt timeout.
func WithTimeout(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// Execute runs op for the named endpoint through all configured layers.
//
// A rate-limit denial or an open circuit fails fast before op is invoked;
// both surface as their own sentinel so callers can tell "partner is
// down" from "this request was shed".
func (e *Executor) Execute(ctx context.Context, endpoint string, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(endpoint, func() error { return inner(ctx) })
		}
	}

	return execute(ctx)
}

// RateLimiter returns the configured limiter, or nil.
func (e *Executor) RateLimiter() *RateLimiter { return e.rateLimiter }

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker { return e.circuitBreaker }
