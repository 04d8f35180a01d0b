package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keymarket/g2a-connect/apierr"
)

// Config tunes the batch executor.
type Config struct {
	// ChunkSize is the number of items per chunk.
	// Default: 50
	ChunkSize int

	// MaxConcurrency is the number of chunks in flight at once.
	// Default: 4
	MaxConcurrency int

	// StopOnError aborts remaining chunks after the first item failure.
	// The default is to continue and aggregate partial failures.
	StopOnError bool
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 4
	}
	return c
}

// Failure records one failed item with its position in the original
// input.
type Failure struct {
	Index int
	Err   error
}

// Result aggregates a batch run. SuccessCount+FailureCount always
// equals TotalProcessed; failure indices refer to the original input
// regardless of chunking.
type Result[T any] struct {
	Success        []T
	Failures       []Failure
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
	Duration       time.Duration
}

// Processor handles a single item.
type Processor[In, Out any] func(ctx context.Context, item In) (Out, error)

// Execute runs proc over items in chunks. One item's failure never
// aborts its siblings unless StopOnError is set; all outcomes are
// aggregated into the result with input order preserved.
func Execute[In, Out any](ctx context.Context, cfg Config, items []In, proc Processor[In, Out]) Result[Out] {
	cfg = cfg.withDefaults()
	start := time.Now()

	type slot struct {
		out  Out
		err  error
		done bool
	}
	slots := make([]slot, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)

	for lo := 0; lo < len(items); lo += cfg.ChunkSize {
		hi := min(lo+cfg.ChunkSize, len(items))
		lo := lo
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return nil
				}
				out, err := proc(gctx, items[i])
				slots[i] = slot{out: out, err: err, done: true}
				if err != nil && cfg.StopOnError {
					// Cancels gctx so sibling chunks stop early.
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := Result[Out]{Duration: time.Since(start)}
	for i, s := range slots {
		if !s.done {
			continue
		}
		result.TotalProcessed++
		if s.err != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, Failure{Index: i, Err: s.err})
		} else {
			result.SuccessCount++
			result.Success = append(result.Success, s.out)
		}
	}
	return result
}

// ExecuteStrict is the all-or-nothing variant: any item failure turns
// the whole batch into a single partial-failure error carrying per-item
// detail; otherwise the outputs come back in input order.
func ExecuteStrict[In, Out any](ctx context.Context, cfg Config, items []In, proc Processor[In, Out]) ([]Out, error) {
	result := Execute(ctx, cfg, items, proc)
	if result.FailureCount == 0 && result.TotalProcessed == len(items) {
		return result.Success, nil
	}

	e := apierr.New(apierr.CodeBatchPartialFailure, "batch completed with failures").
		WithContext("total", len(items)).
		WithContext("processed", result.TotalProcessed).
		WithContext("succeeded", result.SuccessCount).
		WithContext("failed", result.FailureCount)

	details := make([]map[string]any, 0, len(result.Failures))
	for _, f := range result.Failures {
		details = append(details, map[string]any{"index": f.Index, "error": f.Err.Error()})
	}
	return nil, e.WithContext("failures", details)
}
