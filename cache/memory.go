package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a bounded in-memory cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	policy  Policy
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache with the given policy.
func NewMemoryCache(policy Policy) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		policy:  policy,
	}
}

// Get retrieves a value. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		// Expired, clean up lazily.
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy.MaxEntries > 0 && len(c.entries) >= c.policy.MaxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLocked()
		}
	}

	c.entries[key] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// evictLocked makes room for one entry: expired entries go first, then
// the entry closest to expiry.
func (c *MemoryCache) evictLocked() {
	now := time.Now()
	var (
		soonestKey string
		soonest    time.Time
	)
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			return
		}
		if soonestKey == "" || e.expiresAt.Before(soonest) {
			soonestKey, soonest = k, e.expiresAt
		}
	}
	if soonestKey != "" {
		delete(c.entries, soonestKey)
	}
}

// Delete removes a value. Idempotent, no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries, counting not-yet-swept
// expired ones.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
