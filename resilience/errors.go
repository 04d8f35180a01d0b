package resilience

import "errors"

// Sentinel errors for the resilience layer. The request pipeline maps them
// into the client error taxonomy at the boundary; within this package they
// stay plain sentinels so each condition remains a distinct error path.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and the
	// call was rejected without touching the network.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimited is returned when the token bucket denied admission.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the in-flight request cap is hit.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
