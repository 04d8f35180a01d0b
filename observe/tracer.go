package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CallMeta identifies one partner API call for telemetry.
type CallMeta struct {
	// Endpoint is the logical endpoint name, e.g. "orders.pay".
	Endpoint string
	// Method is the HTTP method.
	Method string
	// RequestID is the per-call correlation id.
	RequestID string
}

// SpanName returns the deterministic span name for the call.
func (m CallMeta) SpanName() string {
	return "g2a.call." + m.Endpoint
}

// Tracer wraps OpenTelemetry tracing with call-scoped span management.
type Tracer interface {
	StartCall(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndCall(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartCall(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(
			attribute.String("g2a.endpoint", meta.Endpoint),
			attribute.String("http.method", meta.Method),
			attribute.String("g2a.request_id", meta.RequestID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndCall(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
