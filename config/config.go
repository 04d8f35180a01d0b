package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Environment selects the partner API surface.
type Environment string

const (
	// EnvSandbox targets the partner sandbox.
	EnvSandbox Environment = "sandbox"
	// EnvLive targets the production integration API.
	EnvLive Environment = "live"
)

// Credentials holds the partner API credentials. The Import API uses
// ClientID/ClientSecret (OAuth2 client credentials); the Export API uses
// APIKey plus a request hash derived from APIKey, Email and ClientSecret.
type Credentials struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	APIKey       string `yaml:"api_key"`
	Email        string `yaml:"email"`
}

// RetryPolicy configures the retry layer.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the initial call.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// InitialDelay is the delay before the first retry.
	// Default: 500ms
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the backoff delay.
	// Default: 30s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64 `yaml:"multiplier"`

	// Jitter randomizes delays to avoid thundering herds.
	// Default: true (set NoJitter to disable)
	NoJitter bool `yaml:"no_jitter"`
}

// BreakerPolicy configures the circuit breaker.
type BreakerPolicy struct {
	// Disabled bypasses the breaker entirely: the gate always reports
	// closed and never trips.
	Disabled bool `yaml:"disabled"`

	// FailureThreshold is the number of failures within FailureWindow
	// that opens the circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// FailureWindow is the rolling window failures are counted in.
	// Default: 60s
	FailureWindow time.Duration `yaml:"failure_window"`

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30s
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// HalfOpenSuccesses is the number of consecutive probe successes
	// required to close the circuit again.
	// Default: 2
	HalfOpenSuccesses int `yaml:"half_open_successes"`
}

// BucketPolicy describes a single token bucket.
type BucketPolicy struct {
	// RequestsPerSecond is the refill rate.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Burst is the bucket capacity.
	Burst int `yaml:"burst"`
}

// RateLimitPolicy configures client-side admission control.
type RateLimitPolicy struct {
	// Disabled turns the limiter into a pass-through.
	Disabled bool `yaml:"disabled"`

	// Global is the bucket every request must pass.
	// Default: 10 req/s, burst 20
	Global BucketPolicy `yaml:"global"`

	// Endpoints holds stricter per-endpoint buckets keyed by endpoint
	// name (for example "orders.pay"). A request to a listed endpoint
	// must pass both its bucket and the global one.
	Endpoints map[string]BucketPolicy `yaml:"endpoints"`
}

// BatchPolicy configures the batch executor defaults.
type BatchPolicy struct {
	// ChunkSize is the number of items per chunk.
	// Default: 50
	ChunkSize int `yaml:"chunk_size"`

	// MaxConcurrency is the number of chunks in flight at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// StopOnError aborts remaining items on the first failure. The
	// default is to continue and aggregate partial failures.
	StopOnError bool `yaml:"stop_on_error"`
}

// PoolPolicy tunes the underlying HTTP transport.
type PoolPolicy struct {
	// MaxIdleConns is the total idle connection cap.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost caps idle connections per partner host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout closes idle connections after this duration.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// MaxInFlight caps concurrent in-flight partner requests across the
	// whole client. 0 disables the cap.
	MaxInFlight int `yaml:"max_in_flight"`
}

// CachePolicy configures the optional read-through product cache.
type CachePolicy struct {
	// Enabled turns on read-through caching for product and bestseller
	// lookups. Default: false
	Enabled bool `yaml:"enabled"`

	// TTL is the entry lifetime.
	// Default: 5m
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the cache size.
	// Default: 1000
	MaxEntries int `yaml:"max_entries"`
}

// LoggingPolicy configures the structured logger.
type LoggingPolicy struct {
	// Level is one of debug|info|warn|error.
	// Default: info
	Level string `yaml:"level"`
}

// TelemetryPolicy configures metrics and tracing exporters.
type TelemetryPolicy struct {
	// MetricsExporter is one of otlp|prometheus|stdout|none.
	// Default: none
	MetricsExporter string `yaml:"metrics_exporter"`

	// TracingExporter is one of otlp|stdout|none.
	// Default: none
	TracingExporter string `yaml:"tracing_exporter"`
}

// Config is the fully resolved client configuration. Construct it, call
// WithDefaults and Validate, then hand it to the client; it is not mutated
// afterwards.
type Config struct {
	Credentials Credentials `yaml:"credentials"`

	// Environment selects sandbox or live. Default: sandbox
	Environment Environment `yaml:"environment"`

	// BaseURL is the partner API base. Normalized per environment; leave
	// empty for the well-known default host.
	BaseURL string `yaml:"base_url"`

	// TokenURL is the OAuth2 token endpoint. Default: <base host>/oauth/token
	TokenURL string `yaml:"token_url"`

	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// ReservationTimeout is the fixed tight timeout used for all
	// reservation calls, independent of Timeout.
	// Default: 5s
	ReservationTimeout time.Duration `yaml:"reservation_timeout"`

	// PageDelay is the pause inserted between auto-paginated page
	// fetches.
	// Default: 200ms
	PageDelay time.Duration `yaml:"page_delay"`

	Retry     RetryPolicy     `yaml:"retry"`
	Breaker   BreakerPolicy   `yaml:"breaker"`
	RateLimit RateLimitPolicy `yaml:"rate_limit"`
	Batch     BatchPolicy     `yaml:"batch"`
	Pool      PoolPolicy      `yaml:"pool"`
	Cache     CachePolicy     `yaml:"cache"`
	Logging   LoggingPolicy   `yaml:"logging"`
	Telemetry TelemetryPolicy `yaml:"telemetry"`
}

// WithDefaults returns a copy of c with every unset field populated. The
// result always has every tunable filled in, so downstream code never
// checks for zero values.
func (c Config) WithDefaults() Config {
	if c.Environment == "" {
		c.Environment = EnvSandbox
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.ReservationTimeout <= 0 {
		c.ReservationTimeout = 5 * time.Second
	}
	if c.PageDelay <= 0 {
		c.PageDelay = 200 * time.Millisecond
	}

	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = 2.0
	}

	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.FailureWindow <= 0 {
		c.Breaker.FailureWindow = 60 * time.Second
	}
	if c.Breaker.ResetTimeout <= 0 {
		c.Breaker.ResetTimeout = 30 * time.Second
	}
	if c.Breaker.HalfOpenSuccesses <= 0 {
		c.Breaker.HalfOpenSuccesses = 2
	}

	if c.RateLimit.Global.RequestsPerSecond <= 0 {
		c.RateLimit.Global.RequestsPerSecond = 10
	}
	if c.RateLimit.Global.Burst <= 0 {
		c.RateLimit.Global.Burst = 20
	}

	if c.Batch.ChunkSize <= 0 {
		c.Batch.ChunkSize = 50
	}
	if c.Batch.MaxConcurrency <= 0 {
		c.Batch.MaxConcurrency = 4
	}

	if c.Pool.MaxIdleConns <= 0 {
		c.Pool.MaxIdleConns = 100
	}
	if c.Pool.MaxIdleConnsPerHost <= 0 {
		c.Pool.MaxIdleConnsPerHost = 10
	}
	if c.Pool.IdleConnTimeout <= 0 {
		c.Pool.IdleConnTimeout = 90 * time.Second
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1000
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Telemetry.MetricsExporter == "" {
		c.Telemetry.MetricsExporter = "none"
	}
	if c.Telemetry.TracingExporter == "" {
		c.Telemetry.TracingExporter = "none"
	}

	normalized, err := NormalizeBaseURL(c.BaseURL, c.Environment)
	if err == nil {
		c.BaseURL = normalized
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL(c.BaseURL)
	}

	return c
}

// Validate checks invariants that defaults cannot repair.
func (c Config) Validate() error {
	if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
		return errors.New("config: client credentials are required")
	}
	if c.Environment != EnvSandbox && c.Environment != EnvLive {
		return fmt.Errorf("config: unknown environment %q", c.Environment)
	}
	if _, err := NormalizeBaseURL(c.BaseURL, c.Environment); err != nil {
		return err
	}
	return nil
}

const (
	sandboxHost = "sandboxapi.g2a.com"
	liveHost    = "api.g2a.com"
)

// NormalizeBaseURL canonicalizes a partner base URL for the environment:
// sandbox bases end in /v1, live bases end in /integration-api/v1. Bare
// hostnames, trailing slashes and legacy path forms (/v1 on live,
// /integration-api without version) are all tolerated.
func NormalizeBaseURL(raw string, env Environment) (string, error) {
	if raw == "" {
		if env == EnvLive {
			raw = liveHost
		} else {
			raw = sandboxHost
		}
	}
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("config: invalid base URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("config: base URL %q has no host", raw)
	}

	p := strings.TrimRight(u.Path, "/")
	for {
		switch {
		case strings.HasSuffix(p, "/v1"):
			p = strings.TrimSuffix(p, "/v1")
		case strings.HasSuffix(p, "/integration-api"):
			p = strings.TrimSuffix(p, "/integration-api")
		default:
			if env == EnvLive {
				p += "/integration-api/v1"
			} else {
				p += "/v1"
			}
			u.Path = p
			u.RawQuery = ""
			u.Fragment = ""
			return u.String(), nil
		}
	}
}

// defaultTokenURL derives the OAuth2 token endpoint from the API base: the
// token service lives at /oauth/token on the same host.
func defaultTokenURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u.Path = "/oauth/token"
	return u.String()
}
