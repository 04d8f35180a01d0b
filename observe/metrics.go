package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records partner request outcomes for percentile reporting.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one pipeline execution. outcome is "ok" or
	// the taxonomy code of the failure; retries is the number of
	// re-attempts the retry layer performed.
	RecordRequest(ctx context.Context, endpoint string, duration time.Duration, outcome string, retries int64)
}

type metricsImpl struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	total, err := meter.Int64Counter(
		"g2a.requests.total",
		metric.WithDescription("Total partner API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errCount, err := meter.Int64Counter(
		"g2a.requests.errors",
		metric.WithDescription("Partner API requests that ended in a typed error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"g2a.requests.retries",
		metric.WithDescription("Retry attempts performed by the request pipeline"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"g2a.request.duration_ms",
		metric.WithDescription("Partner request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{total: total, errors: errCount, retries: retries, duration: duration}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, endpoint string, duration time.Duration, outcome string, retries int64) {
	opt := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)

	m.total.Add(ctx, 1, opt)
	if outcome != "ok" {
		m.errors.Add(ctx, 1, opt)
	}
	if retries > 0 {
		m.retries.Add(ctx, retries, metric.WithAttributes(attribute.String("endpoint", endpoint)))
	}
	m.duration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(context.Context, string, time.Duration, string, int64) {}
