package observe

import "errors"

var (
	// ErrMissingServiceName indicates the service name was empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidSamplePct indicates a sampling ratio outside [0, 1].
	ErrInvalidSamplePct = errors.New("observe: sample pct must be in [0, 1]")
)
