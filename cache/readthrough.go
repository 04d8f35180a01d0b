package cache

import "context"

// FetchFunc performs the underlying partner call on a cache miss and
// returns the serialized response.
type FetchFunc func(ctx context.Context) ([]byte, error)

// ReadThrough wraps idempotent partner reads with caching. Callers
// decide which endpoints go through it; write operations never should.
type ReadThrough struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewReadThrough creates a read-through wrapper. A nil cache or a
// disabled policy yields a pass-through.
func NewReadThrough(c Cache, keyer Keyer, policy Policy) *ReadThrough {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &ReadThrough{cache: c, keyer: keyer, policy: policy}
}

// Do returns the cached response for (endpoint, params) or invokes
// fetch and caches its result. Errors are never cached.
func (r *ReadThrough) Do(ctx context.Context, endpoint string, params any, fetch FetchFunc) ([]byte, error) {
	if r == nil || r.cache == nil || !r.policy.Enabled() {
		return fetch(ctx)
	}

	key, err := r.keyer.Key(endpoint, params)
	if err != nil {
		// Key derivation failed, fetch without caching.
		return fetch(ctx)
	}

	if cached, ok := r.cache.Get(ctx, key); ok {
		return cached, nil
	}

	result, err := fetch(ctx)
	if err != nil {
		return result, err
	}

	_ = r.cache.Set(ctx, key, result, r.policy.DefaultTTL)
	return result, nil
}

// Invalidate drops the cached entry for (endpoint, params).
func (r *ReadThrough) Invalidate(ctx context.Context, endpoint string, params any) {
	if r == nil || r.cache == nil {
		return
	}
	if key, err := r.keyer.Key(endpoint, params); err == nil {
		_ = r.cache.Delete(ctx, key)
	}
}
