package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keymarket/g2a-connect/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Second,
	})

	ctx := context.Background()
	err := cb.Execute(ctx, func(ctx context.Context) error {
		// Simulated successful partner call
		return nil
	})

	if err == nil {
		fmt.Println("Call succeeded")
	}
	// Output:
	// Call succeeded
}

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	ctx := context.Background()

	fmt.Println("Initial state:", cb.State())

	// Trip the circuit
	partnerDown := errors.New("service unavailable")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return partnerDown
		})
	}
	fmt.Println("After failures:", cb.State())

	cb.Reset()
	fmt.Println("After reset:", cb.State())
	// Output:
	// Initial state: closed
	// After failures: open
	// After reset: closed
}

func ExampleRateLimiter_Allow() {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Global: resilience.BucketConfig{Rate: 1, Burst: 2},
	})

	for i := 1; i <= 3; i++ {
		fmt.Printf("request %d allowed: %v\n", i, rl.Allow("products.list"))
	}
	// Output:
	// request 1 allowed: true
	// request 2 allowed: true
	// request 3 allowed: false
}

func ExampleRetry_Execute() {
	r := resilience.NewRetry(resilience.RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		NoJitter:     true,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient failure")
		}
		return nil
	})

	fmt.Println("error:", err)
	fmt.Println("attempts:", attempts)
	// Output:
	// error: <nil>
	// attempts: 3
}
