package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/keymarket/g2a-connect/observe"
)

// Task is one named sync sub-task, such as a catalog, category, genre
// or platform pass.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Report summarizes an orchestrator run. Failures live here, not in an
// error return: one sub-task failing never aborts its siblings, and the
// orchestrator itself never fails.
type Report struct {
	Succeeded []string
	// Errors holds one "<task>: <cause>" entry per failed sub-task, in
	// task order.
	Errors   []string
	Duration time.Duration
}

// Ok reports whether every sub-task succeeded.
func (r Report) Ok() bool {
	return len(r.Errors) == 0
}

// Orchestrator coordinates sync sub-tasks sequentially or in parallel.
type Orchestrator struct {
	logger observe.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger disables
// logging.
func NewOrchestrator(logger observe.Logger) *Orchestrator {
	if logger == nil {
		logger = observe.NopLogger{}
	}
	return &Orchestrator{logger: logger}
}

// Run executes the tasks. Sequential mode runs and completes them
// strictly in declared order; parallel mode starts them all and waits
// for every one to settle. Each failure is caught locally, logged, and
// appended to the report.
func (o *Orchestrator) Run(ctx context.Context, tasks []Task, parallel bool) Report {
	start := time.Now()
	errs := make([]error, len(tasks))

	if parallel {
		var wg stdsync.WaitGroup
		for i, task := range tasks {
			wg.Add(1)
			go func(i int, task Task) {
				defer wg.Done()
				errs[i] = o.runOne(ctx, task)
			}(i, task)
		}
		wg.Wait()
	} else {
		for i, task := range tasks {
			errs[i] = o.runOne(ctx, task)
		}
	}

	report := Report{Duration: time.Since(start)}
	for i, task := range tasks {
		if errs[i] != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", task.Name, errs[i]))
		} else {
			report.Succeeded = append(report.Succeeded, task.Name)
		}
	}
	return report
}

func (o *Orchestrator) runOne(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	o.logger.Debug(ctx, "sync task starting", observe.F("task", task.Name))
	if err := task.Run(ctx); err != nil {
		o.logger.Warn(ctx, "sync task failed",
			observe.F("task", task.Name),
			observe.F("error", err.Error()),
		)
		return err
	}
	o.logger.Debug(ctx, "sync task done", observe.F("task", task.Name))
	return nil
}
