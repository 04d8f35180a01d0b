package webhook

import (
	"sync"
	"time"
)

// nonceLedger remembers accepted nonces for a bounded TTL window so a
// captured event cannot be replayed.
type nonceLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	max     int

	now func() time.Time
}

func newNonceLedger(ttl time.Duration, max int) *nonceLedger {
	return &nonceLedger{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

// remember records the nonce and reports whether it was fresh. A nonce
// seen within its TTL is rejected.
func (l *nonceLedger) remember(nonce string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, ok := l.entries[nonce]; ok && now.Before(expiry) {
		return false
	}

	l.sweepLocked(now)
	l.entries[nonce] = now.Add(l.ttl)
	return true
}

// sweepLocked drops expired entries, then the soonest-expiring ones if
// the ledger is still at capacity.
func (l *nonceLedger) sweepLocked(now time.Time) {
	for nonce, expiry := range l.entries {
		if !now.Before(expiry) {
			delete(l.entries, nonce)
		}
	}
	for len(l.entries) >= l.max {
		oldest, oldestExpiry := "", time.Time{}
		for nonce, expiry := range l.entries {
			if oldest == "" || expiry.Before(oldestExpiry) {
				oldest, oldestExpiry = nonce, expiry
			}
		}
		delete(l.entries, oldest)
	}
}

func (l *nonceLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
