// Package apierr defines the closed error taxonomy for the G2A integration
// client.
//
// Every error that crosses the client boundary carries a Code from this
// package. Transport and HTTP failures are mapped exactly once, at the
// request pipeline boundary, so callers never see raw *url.Error or bare
// status codes. Retryability is a property of the code, not of the call
// site: RetryableCode is the single source of truth consulted by the retry
// layer.
//
// Partner-specific sub-codes (for example the payment sub-codes returned by
// the order API) are preserved on Error.SubCode so callers can branch on
// them without re-parsing response bodies.
package apierr
