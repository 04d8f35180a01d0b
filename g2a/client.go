package g2a

import (
	"context"
	"net/http"
	"time"

	"github.com/keymarket/g2a-connect/auth"
	"github.com/keymarket/g2a-connect/cache"
	"github.com/keymarket/g2a-connect/config"
	"github.com/keymarket/g2a-connect/observe"
	"github.com/keymarket/g2a-connect/resilience"
)

// Version is reported as the client's service version in telemetry.
const Version = "1.2.0"

// Client is the integration client facade. Construct one per partner
// account, share it freely across goroutines, and Close it when done.
// There is no process-wide instance; lifecycle belongs to the caller.
type Client struct {
	cfg config.Config

	httpClient   *http.Client
	observer     *observe.Observer
	ownsObserver bool
	transport    *transport

	// Products browses the partner catalog.
	Products *ProductsService
	// Orders creates and pays purchases and downloads keys.
	Orders *OrdersService
	// Offers manages the seller's own listings.
	Offers *OffersService
	// Reservations holds inventory during checkout.
	Reservations *ReservationsService
	// Jobs tracks asynchronous partner operations.
	Jobs *JobsService
	// Bestsellers serves the bestselling products feed.
	Bestsellers *BestsellersService
	// Pricing quotes current purchase prices.
	Pricing *PricingService
}

type options struct {
	httpClient *http.Client
	observer   *observe.Observer
	tokens     auth.TokenProvider
	signer     *auth.Signer
}

// Option customizes client construction.
type Option func(*options)

// WithHTTPClient substitutes the HTTP client. The pool policy is not
// applied to a caller-supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithObserver attaches an existing telemetry stack. The client will
// not shut it down on Close.
func WithObserver(obs *observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithTokenProvider substitutes the Import API token source.
func WithTokenProvider(tp auth.TokenProvider) Option {
	return func(o *options) { o.tokens = tp }
}

// WithSigner substitutes the Export API request signer.
func WithSigner(s *auth.Signer) Option {
	return func(o *options) { o.signer = s }
}

// New builds a client from a resolved configuration. Defaults are
// applied and the config validated before anything is constructed.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{cfg: cfg}

	if o.observer != nil {
		c.observer = o.observer
	} else {
		obs, err := observe.NewObserver(context.Background(), observe.Config{
			ServiceName:     "g2a-connect",
			Version:         Version,
			MetricsExporter: cfg.Telemetry.MetricsExporter,
			TracingExporter: cfg.Telemetry.TracingExporter,
			SamplePct:       1,
			LogLevel:        cfg.Logging.Level,
		})
		if err != nil {
			return nil, err
		}
		c.observer = obs
		c.ownsObserver = true
	}
	logger := c.observer.Logger().With(observe.F("component", "g2a"))

	if o.httpClient != nil {
		c.httpClient = o.httpClient
	} else {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        cfg.Pool.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Pool.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Pool.IdleConnTimeout,
			},
		}
	}

	tokens := o.tokens
	if tokens == nil {
		tp, err := auth.NewOAuthTokenProvider(auth.OAuthConfig{
			TokenURL:     cfg.TokenURL,
			ClientID:     cfg.Credentials.ClientID,
			ClientSecret: cfg.Credentials.ClientSecret,
			HTTPClient:   c.httpClient,
		})
		if err != nil {
			return nil, err
		}
		tokens = tp
	}

	signer := o.signer
	if signer == nil && cfg.Credentials.APIKey != "" && cfg.Credentials.Email != "" {
		s, err := auth.NewSigner(cfg.Credentials.APIKey, cfg.Credentials.ClientSecret, cfg.Credentials.Email)
		if err != nil {
			return nil, err
		}
		signer = s
	}

	limiter := resilience.NewRateLimiter(rateLimiterConfig(cfg.RateLimit))
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Disabled:          cfg.Breaker.Disabled,
		FailureThreshold:  cfg.Breaker.FailureThreshold,
		FailureWindow:     cfg.Breaker.FailureWindow,
		ResetTimeout:      cfg.Breaker.ResetTimeout,
		HalfOpenSuccesses: cfg.Breaker.HalfOpenSuccesses,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn(context.Background(), "circuit breaker state change",
				observe.F("from", from.String()),
				observe.F("to", to.String()),
			)
		},
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
		NoJitter:     cfg.Retry.NoJitter,
		RetryIf:      retryClassifier,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Info(context.Background(), "retrying partner call",
				observe.F("attempt", attempt),
				observe.F("delay_ms", delay.Milliseconds()),
				observe.F("error", err.Error()),
			)
		},
	})

	var bulkhead *resilience.Bulkhead
	if cfg.Pool.MaxInFlight > 0 {
		bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxInFlight: cfg.Pool.MaxInFlight,
			Wait:        true,
		})
	}

	sharedLayers := []resilience.ExecutorOption{
		resilience.WithRateLimiter(limiter),
		resilience.WithCircuitBreaker(breaker),
		resilience.WithRetry(retry),
	}
	if bulkhead != nil {
		sharedLayers = append(sharedLayers, resilience.WithBulkhead(bulkhead))
	}

	exec := resilience.NewExecutor(append(sharedLayers,
		resilience.WithTimeout(resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.Timeout})),
	)...)
	// Reservation calls share every stateful layer but run under the
	// partner's tight reservation window instead of the global timeout.
	tightExec := resilience.NewExecutor(append(sharedLayers,
		resilience.WithTimeout(resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.ReservationTimeout})),
	)...)

	c.transport = &transport{
		baseURL:   cfg.BaseURL,
		http:      c.httpClient,
		tokens:    tokens,
		signer:    signer,
		exec:      exec,
		tightExec: tightExec,
		inst:      observe.NewInstrument(c.observer),
		logger:    logger,
	}

	var readCache *cache.ReadThrough
	if cfg.Cache.Enabled {
		policy := cache.Policy{DefaultTTL: cfg.Cache.TTL, MaxEntries: cfg.Cache.MaxEntries}
		readCache = cache.NewReadThrough(cache.NewMemoryCache(policy), nil, policy)
	}

	c.Products = &ProductsService{t: c.transport, cache: readCache, pageDelay: cfg.PageDelay}
	c.Orders = &OrdersService{t: c.transport, payRetryDelay: defaultPayRetryDelay}
	c.Offers = &OffersService{t: c.transport}
	c.Reservations = &ReservationsService{t: c.transport}
	c.Jobs = &JobsService{t: c.transport}
	c.Bestsellers = &BestsellersService{t: c.transport, cache: readCache}
	c.Pricing = &PricingService{t: c.transport}

	return c, nil
}

func rateLimiterConfig(p config.RateLimitPolicy) resilience.RateLimiterConfig {
	cfg := resilience.RateLimiterConfig{
		Disabled: p.Disabled,
		Global: resilience.BucketConfig{
			Rate:  p.Global.RequestsPerSecond,
			Burst: p.Global.Burst,
		},
	}
	if len(p.Endpoints) > 0 {
		cfg.Endpoints = make(map[string]resilience.BucketConfig, len(p.Endpoints))
		for name, b := range p.Endpoints {
			cfg.Endpoints[name] = resilience.BucketConfig{Rate: b.RequestsPerSecond, Burst: b.Burst}
		}
	}
	return cfg
}

// Config returns the resolved configuration the client was built with.
func (c *Client) Config() config.Config {
	return c.cfg
}

// ResetCircuit force-closes the circuit breaker and clears its failure
// history. Intended for test isolation and operator intervention.
func (c *Client) ResetCircuit() {
	if cb := c.transport.exec.CircuitBreaker(); cb != nil {
		cb.Reset()
	}
}

// CircuitSnapshot exposes the breaker state for health reporting.
func (c *Client) CircuitSnapshot() resilience.Snapshot {
	if cb := c.transport.exec.CircuitBreaker(); cb != nil {
		return cb.Snapshot()
	}
	return resilience.Snapshot{State: resilience.StateClosed}
}

// RemainingTokens exposes the global rate-limit bucket level.
func (c *Client) RemainingTokens() float64 {
	if rl := c.transport.exec.RateLimiter(); rl != nil {
		return rl.RemainingTokens()
	}
	return 0
}

// Close releases the client's resources: idle connections are dropped
// and, when the client built its own telemetry stack, that stack is
// flushed and shut down.
func (c *Client) Close(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	if c.ownsObserver {
		return c.observer.Shutdown(ctx)
	}
	return nil
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
