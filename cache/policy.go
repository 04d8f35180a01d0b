package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the entry lifetime. Zero disables caching.
	DefaultTTL time.Duration

	// MaxEntries bounds the number of cached responses. Zero means
	// unbounded.
	MaxEntries int
}

// DefaultPolicy returns the default caching policy: 5 minute TTL,
// 1000 entries.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxEntries: 1000,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// Enabled reports whether this policy caches anything at all.
func (p Policy) Enabled() bool {
	return p.DefaultTTL > 0
}
