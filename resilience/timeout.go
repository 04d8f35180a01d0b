package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the per-attempt timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for a single attempt.
	// Default: 30s
	Timeout time.Duration
}

// Timeout bounds individual operation attempts. It sits innermost in the
// pipeline so each retry attempt gets a fresh deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op under a deadline. A deadline hit surfaces as ErrTimeout;
// an outer timeout or batch layer treats it like any other failure.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
