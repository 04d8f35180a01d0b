package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errProbe = errors.New("partner unavailable")

func failingOp(ctx context.Context) error { return errProbe }
func okOp(ctx context.Context) error      { return nil }

func newTestBreaker(clock *fakeClock, cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.now
	return cb
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, CircuitBreakerConfig{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), failingOp)
		if cb.State() != StateClosed {
			t.Fatalf("after %d failures state = %v, want closed", i+1, cb.State())
		}
	}

	_ = cb.Execute(context.Background(), failingOp)
	if cb.State() != StateOpen {
		t.Fatalf("after 3 failures state = %v, want open", cb.State())
	}

	// Open state fails fast without invoking the operation.
	invoked := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		invoked = true
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Execute() when open = %v, want ErrCircuitOpen", err)
	}
	if invoked {
		t.Error("operation must not run while the circuit is open")
	}
}

func TestCircuitBreaker_FailureWindowPrunes(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, CircuitBreakerConfig{
		FailureThreshold: 3,
		FailureWindow:    10 * time.Second,
	})

	_ = cb.Execute(context.Background(), failingOp)
	_ = cb.Execute(context.Background(), failingOp)

	// Old failures age out of the rolling window.
	clock.advance(11 * time.Second)
	_ = cb.Execute(context.Background(), failingOp)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed: stale failures should not count", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, CircuitBreakerConfig{FailureThreshold: 3})

	_ = cb.Execute(context.Background(), failingOp)
	_ = cb.Execute(context.Background(), failingOp)
	_ = cb.Execute(context.Background(), okOp)
	_ = cb.Execute(context.Background(), failingOp)
	_ = cb.Execute(context.Background(), failingOp)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed after intervening success", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	transitions := [][2]State{}
	cb := newTestBreaker(clock, CircuitBreakerConfig{
		FailureThreshold:  1,
		ResetTimeout:      30 * time.Second,
		HalfOpenSuccesses: 2,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, [2]State{from, to})
		},
	})

	_ = cb.Execute(context.Background(), failingOp)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// Before the reset timeout the gate stays shut.
	clock.advance(29 * time.Second)
	if err := cb.Execute(context.Background(), okOp); err != ErrCircuitOpen {
		t.Fatalf("Execute() before reset timeout = %v, want ErrCircuitOpen", err)
	}

	// After the reset timeout the next call is a permitted probe.
	clock.advance(2 * time.Second)
	if err := cb.Execute(context.Background(), okOp); err != nil {
		t.Fatalf("first probe = %v, want nil", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state after one probe success = %v, want half-open", cb.State())
	}

	// Second consecutive success closes.
	if err := cb.Execute(context.Background(), okOp); err != nil {
		t.Fatalf("second probe = %v, want nil", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state after two probe successes = %v, want closed", cb.State())
	}

	want := [][2]State{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, CircuitBreakerConfig{
		FailureThreshold:  1,
		ResetTimeout:      time.Second,
		HalfOpenSuccesses: 2,
	})

	_ = cb.Execute(context.Background(), failingOp)
	clock.advance(2 * time.Second)

	if err := cb.Execute(context.Background(), failingOp); err != errProbe {
		t.Fatalf("probe error = %v, want errProbe", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state after probe failure = %v, want open", cb.State())
	}

	// The reset clock restarted at the probe failure.
	clock.advance(500 * time.Millisecond)
	if err := cb.Execute(context.Background(), okOp); err != ErrCircuitOpen {
		t.Errorf("Execute() = %v, want ErrCircuitOpen until the reset timeout elapses again", err)
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Disabled: true, FailureThreshold: 1})

	for i := 0; i < 10; i++ {
		if err := cb.Execute(context.Background(), failingOp); err != errProbe {
			t.Fatalf("Execute() = %v, want the op error", err)
		}
	}
	if cb.State() != StateClosed {
		t.Error("disabled breaker must always report closed")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, CircuitBreakerConfig{FailureThreshold: 1})

	_ = cb.Execute(context.Background(), failingOp)
	if cb.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Error("Reset() should close the breaker")
	}
	if err := cb.Execute(context.Background(), okOp); err != nil {
		t.Errorf("Execute() after reset = %v", err)
	}
}
