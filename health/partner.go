package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keymarket/g2a-connect/resilience"
)

// PartnerStats is the slice of the client the checker reads. The
// client satisfies it directly.
type PartnerStats interface {
	CircuitSnapshot() resilience.Snapshot
	RemainingTokens() float64
}

// PartnerChecker grades the partner integration from the client's own
// resilience state. An open breaker is unhealthy, a half-open breaker
// or a stale last success is degraded.
type PartnerChecker struct {
	name  string
	stats PartnerStats

	// staleAfter bounds how old the last successful call may be before
	// the integration is graded degraded. Zero disables the check.
	staleAfter time.Duration

	mu          sync.Mutex
	lastSuccess time.Time

	now func() time.Time
}

// NewPartnerChecker creates a checker over the client's stats. Pass a
// zero staleAfter to skip last-success aging.
func NewPartnerChecker(name string, stats PartnerStats, staleAfter time.Duration) *PartnerChecker {
	return &PartnerChecker{
		name:       name,
		stats:      stats,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// RecordSuccess marks a successful partner call. The host calls it
// after completed operations so the checker can age them.
func (c *PartnerChecker) RecordSuccess() {
	c.mu.Lock()
	c.lastSuccess = c.now()
	c.mu.Unlock()
}

func (c *PartnerChecker) Name() string { return c.name }

func (c *PartnerChecker) Check(_ context.Context) Result {
	snap := c.stats.CircuitSnapshot()

	c.mu.Lock()
	lastSuccess := c.lastSuccess
	c.mu.Unlock()

	details := map[string]any{
		"breaker_state":    snap.State.String(),
		"breaker_failures": snap.Failures,
		"remaining_tokens": c.stats.RemainingTokens(),
	}

	var age time.Duration
	if !lastSuccess.IsZero() {
		age = c.now().Sub(lastSuccess)
		details["last_success_age"] = age.String()
	}

	result := Result{Details: details, Checked: c.now()}
	switch {
	case snap.State == resilience.StateOpen:
		result.Status = StatusUnhealthy
		result.Message = "partner circuit open"
	case snap.State == resilience.StateHalfOpen:
		result.Status = StatusDegraded
		result.Message = "partner circuit recovering"
	case c.staleAfter > 0 && !lastSuccess.IsZero() && age > c.staleAfter:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("no successful partner call for %s", age.Truncate(time.Second))
	default:
		result.Status = StatusHealthy
		result.Message = "partner reachable"
	}
	return result
}
