// Package observe provides the telemetry surface for the integration
// client: a structured JSON logger with credential redaction, OpenTelemetry
// request metrics, and spans around partner calls.
//
// The request pipeline wraps every partner call with Instrument, which
// emits the span, the request counters and the latency histogram in one
// place. Sync and batch components receive the Logger only.
//
// Secret handling: field keys that commonly carry credentials (api_key,
// client_secret, signature, ...) are redacted at the log sink regardless of
// what callers pass in. This is the second line of defense; the first is
// that no component puts raw credentials into log fields or error context.
package observe
