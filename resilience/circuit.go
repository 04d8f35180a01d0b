package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls fail fast without touching the network.
	StateOpen
	// StateHalfOpen means limited probe traffic is testing recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Disabled bypasses the gate entirely: the breaker reports closed
	// and never trips.
	Disabled bool

	// FailureThreshold is the number of failures within FailureWindow
	// that opens the circuit.
	// Default: 5
	FailureThreshold int

	// FailureWindow is the rolling window failures are counted in.
	// Default: 60s
	FailureWindow time.Duration

	// ResetTimeout is how long the circuit stays open before the next
	// call is allowed through as a probe.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenSuccesses is the number of consecutive successful probes
	// required to close the circuit.
	// Default: 2
	HalfOpenSuccesses int

	// OnStateChange is called after every state transition.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the threshold.
	// Default: every non-nil error counts.
	IsFailure func(err error) bool
}

// CircuitBreaker guards a failing downstream. Transitions are computed
// lazily from wall-clock deltas on each call; there is no background
// timer, so an idle open circuit moves to half-open only when the next
// call arrives after ResetTimeout.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      []time.Time // failure timestamps within the window, closed state only
	successes     int         // consecutive probe successes, half-open only
	openedAt      time.Time
	halfOpenCount int

	now func() time.Time // test hook
}

// NewCircuitBreaker creates a circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.FailureWindow <= 0 {
		config.FailureWindow = 60 * time.Second
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenSuccesses <= 0 {
		config.HalfOpenSuccesses = 2
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Execute runs op through the breaker gate. In the open state it returns
// ErrCircuitOpen without invoking op.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if cb.config.Disabled {
		return op(ctx)
	}

	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current state, applying any due OPEN→HALF_OPEN
// transition first.
func (cb *CircuitBreaker) State() State {
	if cb.config.Disabled {
		return StateClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the breaker back to closed. Intended for test isolation
// and operator intervention.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	old := cb.state
	cb.state = StateClosed
	cb.failures = nil
	cb.successes = 0
	cb.halfOpenCount = 0

	if old != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(old, StateClosed)
	}
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenSuccesses {
			return ErrCircuitOpen
		}
		cb.halfOpenCount++
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	isFailure := cb.config.IsFailure(err)
	old := cb.state

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.recordFailureLocked()
			if len(cb.failures) >= cb.config.FailureThreshold {
				cb.openLocked()
			}
		} else {
			cb.failures = nil
		}

	case StateHalfOpen:
		if isFailure {
			// Any probe failure reopens immediately and restarts the
			// reset clock.
			cb.openLocked()
		} else {
			cb.successes++
			if cb.successes >= cb.config.HalfOpenSuccesses {
				cb.state = StateClosed
				cb.failures = nil
				cb.successes = 0
				cb.halfOpenCount = 0
			}
		}
	}

	if old != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(old, cb.state)
	}
}

func (cb *CircuitBreaker) recordFailureLocked() {
	now := cb.now()
	cutoff := now.Add(-cb.config.FailureWindow)
	kept := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	cb.failures = append(kept, now)
}

func (cb *CircuitBreaker) openLocked() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.failures = nil
	cb.successes = 0
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		old := cb.state
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.successes = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(old, StateHalfOpen)
		}
	}
	return cb.state
}

// Snapshot reports the breaker's current observable state.
type Snapshot struct {
	State     State
	Failures  int
	Successes int
	OpenedAt  time.Time
}

// Snapshot returns the current breaker statistics.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		State:     cb.currentStateLocked(),
		Failures:  len(cb.failures),
		Successes: cb.successes,
		OpenedAt:  cb.openedAt,
	}
}
