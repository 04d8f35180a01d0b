package health

import (
	"context"
	"time"
)

// Status is a component health grade.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// worseOf picks the more severe of two grades.
func worseOf(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Result is one checker's verdict.
type Result struct {
	Status  Status
	Message string

	// Details carries check-specific metadata for the host's health
	// payload.
	Details map[string]any

	Checked time.Time
}

// Checker grades one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a named checker.
func NewCheckerFunc(name string, fn func(context.Context) Result) CheckerFunc {
	return CheckerFunc{name: name, fn: fn}
}

func (c CheckerFunc) Name() string { return c.name }

func (c CheckerFunc) Check(ctx context.Context) Result { return c.fn(ctx) }
