// Package g2a is the integration client for the G2A reseller API.
//
// A Client is an explicitly constructed, caller-owned instance: build
// one from a resolved config.Config, share it across goroutines, and
// Close it when done. The typed service modules (Products, Orders,
// Offers, Reservations, Jobs, Bestsellers, Pricing) all route through a
// single request pipeline that applies rate limiting, an in-flight cap,
// circuit breaking, retry with backoff and a per-attempt timeout, and
// maps every failure into the apierr taxonomy before it reaches the
// caller. Callers never see raw transport errors.
package g2a
