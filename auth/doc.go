// Package auth implements the two credential schemes the G2A partner
// API uses.
//
// The Import API authenticates with OAuth2 client credentials: tokens
// are fetched from the partner token endpoint, cached, and refreshed
// shortly before they expire. The Export API authenticates per request
// with an HMAC signature over the API key, account email and a
// timestamp, carried in the X-API-KEY, X-API-HASH and X-API-TIMESTAMP
// headers.
//
// Both schemes are exposed as header injectors so the transport layer
// stays agnostic of which API family a call targets.
package auth
