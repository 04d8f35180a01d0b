// Package cache provides read-through caching for partner API reads.
//
// Product and bestseller lookups hit the partner far more often than
// their data changes, so the client can serve repeats from a bounded
// in-memory TTL cache. Keys are derived deterministically from the
// endpoint and request parameters; only idempotent reads go through the
// cache, writes never do.
package cache
