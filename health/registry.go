package health

import (
	"context"
	"sync"
	"time"
)

// Summary is the composite verdict over every registered checker. Its
// overall status is the worst individual grade.
type Summary struct {
	Status  Status
	Results map[string]Result
}

// Registry composes named checkers into one health summary.
type Registry struct {
	// Timeout bounds one composite check.
	// Default: 10s
	Timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{Timeout: 10 * time.Second}
}

// Register adds a checker. Names are expected to be unique; a repeated
// name overwrites the earlier result in the summary.
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, c)
	r.mu.Unlock()
}

// Check runs every checker in parallel and aggregates the verdicts. An
// empty registry is healthy.
func (r *Registry) Check(ctx context.Context) Summary {
	r.mu.RLock()
	checkers := append([]Checker(nil), r.checkers...)
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	type verdict struct {
		name   string
		result Result
	}
	verdicts := make(chan verdict, len(checkers))

	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			verdicts <- verdict{name: c.Name(), result: c.Check(ctx)}
		}(c)
	}
	wg.Wait()
	close(verdicts)

	summary := Summary{Status: StatusHealthy, Results: make(map[string]Result, len(checkers))}
	for v := range verdicts {
		summary.Results[v.name] = v.result
		summary.Status = worseOf(summary.Status, v.result.Status)
	}
	return summary
}
