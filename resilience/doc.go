// Package resilience provides the resilience primitives guarding outbound
// partner API calls.
//
// # Patterns
//
//   - Rate Limiter: two-tier token bucket (global plus per-endpoint)
//     admitting or shedding requests before any network work happens.
//
//   - Circuit Breaker: stops calling a failing partner for a cooldown
//     period, then probes recovery with limited half-open traffic.
//
//   - Retry: re-invokes operations that failed with a retryable error,
//     using exponential backoff with jitter.
//
//   - Bulkhead: caps concurrent in-flight calls so batch fan-out cannot
//     exhaust the connection pool.
//
//   - Timeout: bounds each individual attempt.
//
// # Lazy state transitions
//
// Both the rate limiter and the circuit breaker compute state from
// wall-clock deltas at call time. There are no background timers or
// goroutines; an open circuit becomes half-open on the first call after
// the reset timeout, and bucket tokens accrue only when a check runs.
// This is a deliberate invariant - adding a background scheduler would
// change timing behavior under test.
//
// # Composition
//
// Executor chains the layers in pipeline order:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 30 * time.Second})),
//	)
//	err := exec.Execute(ctx, "orders.pay", func(ctx context.Context) error {
//	    return callPartner(ctx)
//	})
package resilience
