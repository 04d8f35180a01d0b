package observe

import (
	"context"
	"time"
)

// Instrument wraps a partner call with tracing, metrics and logging.
// It is the single observability choke point for the request pipeline:
// the transport builds a CallMeta, hands the call in, and every
// telemetry concern fires from here.
type Instrument struct {
	logger  Logger
	metrics Metrics
	tracer  Tracer
}

// NewInstrument builds an Instrument from an Observer.
func NewInstrument(obs *Observer) *Instrument {
	if obs == nil {
		obs = NewNopObserver()
	}
	return &Instrument{logger: obs.Logger(), metrics: obs.Metrics(), tracer: obs.Tracer()}
}

// Outcome classifies a finished call for metrics. The zero value is
// treated as "ok".
type Outcome struct {
	// Code is the taxonomy code of the failure, empty on success.
	Code string
	// Retries is the number of retry attempts the call consumed.
	Retries int64
}

// Call runs op inside a span, records duration and outcome, and logs
// the result. The outcome reported by op drives the metric labels; the
// returned error is passed through untouched.
func (in *Instrument) Call(ctx context.Context, meta CallMeta, op func(context.Context) (Outcome, error)) error {
	ctx, span := in.tracer.StartCall(ctx, meta)
	start := time.Now()

	outcome, err := op(ctx)
	elapsed := time.Since(start)

	label := outcome.Code
	if label == "" {
		label = "ok"
	}
	in.metrics.RecordRequest(ctx, meta.Endpoint, elapsed, label, outcome.Retries)
	in.tracer.EndCall(span, err)

	fields := []Field{
		F("endpoint", meta.Endpoint),
		F("method", meta.Method),
		F("request_id", meta.RequestID),
		F("duration_ms", elapsed.Milliseconds()),
		F("retries", outcome.Retries),
	}
	if err != nil {
		fields = append(fields, F("code", label), F("error", err.Error()))
		in.logger.Warn(ctx, "partner call failed", fields...)
		return err
	}
	in.logger.Debug(ctx, "partner call ok", fields...)
	return nil
}
