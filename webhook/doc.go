// Package webhook verifies inbound partner event payloads before the
// host application trusts them.
//
// Every event carries a signature, nonce and timestamp triple, sourced
// from request headers first with a JSON envelope fallback. The
// signature is an HMAC-SHA256 over the timestamp, the nonce and the
// signed payload bytes; nonces are single-use within a TTL window to
// block replays.
package webhook
