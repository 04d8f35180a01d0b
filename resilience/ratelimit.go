package resilience

import (
	"sync"
	"time"
)

// BucketConfig describes a single token bucket.
type BucketConfig struct {
	// Rate is the refill rate in tokens per second.
	// Default: 10
	Rate float64

	// Burst is the bucket capacity.
	// Default: 20
	Burst int
}

// RateLimiterConfig configures the two-tier rate limiter.
type RateLimiterConfig struct {
	// Disabled turns the limiter into a pass-through: Allow always
	// returns true and no tokens are tracked.
	Disabled bool

	// Global is the bucket every request must pass.
	Global BucketConfig

	// Endpoints holds per-endpoint buckets keyed by endpoint name.
	// A request to a listed endpoint must pass both its own bucket and
	// the global one; unknown endpoints are gated by the global bucket
	// alone.
	Endpoints map[string]BucketConfig
}

type tokenBucket struct {
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
}

func newTokenBucket(cfg BucketConfig, now time.Time) *tokenBucket {
	return &tokenBucket{
		rate:   cfg.Rate,
		burst:  float64(cfg.Burst),
		tokens: float64(cfg.Burst),
		last:   now,
	}
}

// refill is lazy: tokens accrue as elapsedSeconds*rate, capped at burst,
// computed at check time. There is no background timer; lazy wall-clock
// evaluation is a documented invariant of this limiter.
func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.last)
	b.last = now
	b.tokens += elapsed.Seconds() * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
}

// RateLimiter is a two-tier token bucket: a global bucket plus optional
// stricter per-endpoint buckets. State is scoped to the owning client
// instance, never process-global.
type RateLimiter struct {
	disabled bool

	mu        sync.Mutex
	global    *tokenBucket
	endpoints map[string]*tokenBucket

	now func() time.Time // test hook
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Global.Rate <= 0 {
		cfg.Global.Rate = 10
	}
	if cfg.Global.Burst <= 0 {
		cfg.Global.Burst = 20
	}

	rl := &RateLimiter{
		disabled:  cfg.Disabled,
		endpoints: make(map[string]*tokenBucket, len(cfg.Endpoints)),
		now:       time.Now,
	}
	start := rl.now()
	rl.global = newTokenBucket(cfg.Global, start)
	for name, bc := range cfg.Endpoints {
		if bc.Rate <= 0 || bc.Burst <= 0 {
			continue
		}
		rl.endpoints[name] = newTokenBucket(bc, start)
	}
	return rl
}

// Allow reports whether a request to endpoint may proceed, consuming one
// token from the global bucket and, if one exists, the endpoint bucket.
// Non-blocking. A denial consumes nothing from either bucket, so the
// effective gate is the stricter of the two.
func (rl *RateLimiter) Allow(endpoint string) bool {
	if rl.disabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.global.refill(now)

	ep := rl.endpoints[endpoint]
	if ep != nil {
		ep.refill(now)
	}

	if rl.global.tokens < 1 {
		return false
	}
	if ep != nil && ep.tokens < 1 {
		return false
	}

	rl.global.tokens--
	if ep != nil {
		ep.tokens--
	}
	return true
}

// RemainingTokens returns the current global token count, refilled to the
// present moment. Exposed for observability and health reporting.
func (rl *RateLimiter) RemainingTokens() float64 {
	if rl.disabled {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.global.refill(rl.now())
	return rl.global.tokens
}

// Execute runs op if the limiter admits the request; a denial returns
// ErrRateLimited without invoking op. Denials surface immediately to the
// caller rather than feeding the retry loop.
func (rl *RateLimiter) Execute(endpoint string, op func() error) error {
	if !rl.Allow(endpoint) {
		return ErrRateLimited
	}
	return op()
}
