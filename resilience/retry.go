package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the initial call, so
	// the operation runs at most 1+MaxRetries times.
	// Default: 3
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// NoJitter disables the randomization added to each delay.
	NoJitter bool

	// RetryIf decides whether an error is worth re-attempting. The
	// client wires the error taxonomy's retryability table in here;
	// non-retryable errors propagate immediately with no delay.
	// Default: every non-nil error retries.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt with the attempt
	// number (1-based), the error and the chosen delay. Used for
	// per-attempt logging and metrics.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-invokes failing operations with exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 500 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op, re-attempting on retryable failures. The final error is
// the last attempt's error, unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// delay computes min(initial*multiplier^attempt, max), plus up to 25%
// jitter unless disabled.
func (r *Retry) delay(attempt int) time.Duration {
	d := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt)))
	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if q := int64(d / 4); !r.config.NoJitter && q > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(q))
	}
	return d
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
