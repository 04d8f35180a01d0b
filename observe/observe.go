package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/keymarket/g2a-connect/observe/exporters"
)

// Config configures the Observer.
type Config struct {
	ServiceName string
	Version     string

	// MetricsExporter is one of otlp|prometheus|stdout|none.
	MetricsExporter string
	// TracingExporter is one of otlp|stdout|none.
	TracingExporter string
	// SamplePct is the trace sampling ratio in [0, 1]. Only consulted
	// when tracing is enabled.
	SamplePct float64

	// LogLevel is one of debug|info|warn|error.
	LogLevel string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if !validExporter(c.MetricsExporter, "prometheus") {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.MetricsExporter)
	}
	if !validExporter(c.TracingExporter, "") {
		return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.TracingExporter)
	}
	if c.SamplePct < 0 || c.SamplePct > 1 {
		return ErrInvalidSamplePct
	}
	return nil
}

func validExporter(name, extra string) bool {
	switch name {
	case "otlp", "stdout", "none", "":
		return true
	}
	return extra != "" && name == extra
}

// Observer bundles the telemetry primitives handed to the client.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Shutdown is idempotent and honors the context deadline.
type Observer struct {
	logger  Logger
	metrics Metrics
	tracer  Tracer

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// NewObserver builds the telemetry stack from cfg. Exporter "none" (or
// empty) yields no-op providers, so a client without telemetry wiring
// costs nothing per call.
func NewObserver(ctx context.Context, cfg Config) (*Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs := &Observer{logger: NewLogger(cfg.LogLevel)}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: building resource: %w", err)
	}

	var meter metric.Meter
	if enabled(cfg.MetricsExporter) {
		reader, err := exporters.NewMetricsReader(ctx, cfg.MetricsExporter)
		if err != nil {
			return nil, fmt.Errorf("observe: metrics exporter: %w", err)
		}
		obs.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)
		meter = obs.meterProvider.Meter(cfg.ServiceName)
	} else {
		meter = metricnoop.NewMeterProvider().Meter("noop")
	}

	m, err := newMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("observe: registering instruments: %w", err)
	}
	obs.metrics = m

	var tr trace.Tracer
	if enabled(cfg.TracingExporter) {
		exporter, err := exporters.NewTracingExporter(ctx, cfg.TracingExporter)
		if err != nil {
			return nil, fmt.Errorf("observe: trace exporter: %w", err)
		}
		obs.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler(cfg.SamplePct)),
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(obs.tracerProvider)
		tr = obs.tracerProvider.Tracer(cfg.ServiceName)
	} else {
		tr = tracenoop.NewTracerProvider().Tracer("noop")
	}
	obs.tracer = newTracer(tr)

	return obs, nil
}

// NewNopObserver returns an Observer that discards everything. Used in
// tests and as the default when the host app supplies no telemetry config.
func NewNopObserver() *Observer {
	return &Observer{
		logger:  NopLogger{},
		metrics: NopMetrics{},
		tracer:  newTracer(tracenoop.NewTracerProvider().Tracer("noop")),
	}
}

func sampler(pct float64) sdktrace.Sampler {
	switch {
	case pct >= 1:
		return sdktrace.AlwaysSample()
	case pct <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(pct)
	}
}

func enabled(exporter string) bool {
	return exporter != "" && exporter != "none"
}

// Logger returns the configured logger.
func (o *Observer) Logger() Logger { return o.logger }

// Metrics returns the configured metrics sink.
func (o *Observer) Metrics() Metrics { return o.metrics }

// Tracer returns the configured tracer.
func (o *Observer) Tracer() Tracer { return o.tracer }

// Shutdown flushes and stops the telemetry providers.
func (o *Observer) Shutdown(ctx context.Context) error {
	var first error
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			first = err
		}
		o.meterProvider = nil
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil && first == nil {
			first = err
		}
		o.tracerProvider = nil
	}
	return first
}
