package g2a

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/keymarket/g2a-connect/apierr"
)

// Polling defaults for WaitForCompletion.
const (
	defaultJobPoll    = time.Second
	defaultJobMaxWait = 2 * time.Minute
)

// JobsService tracks asynchronous partner operations.
type JobsService struct {
	t *transport
}

// Get fetches a job's current state.
func (s *JobsService) Get(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "job id is required")
	}
	var job Job
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "jobs/" + url.PathEscape(id),
		endpoint: "jobs.get",
		notFound: apierr.CodeAPIError,
	}, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForCompletion polls the job at pollInterval until it reaches a
// terminal status or maxWait elapses. A failed job surfaces as an API
// error carrying the partner's message; an exhausted wait surfaces as a
// timeout. The loop is always bounded.
func (s *JobsService) WaitForCompletion(ctx context.Context, id string, pollInterval, maxWait time.Duration) (*Job, error) {
	if pollInterval <= 0 {
		pollInterval = defaultJobPoll
	}
	if maxWait <= 0 {
		maxWait = defaultJobMaxWait
	}
	deadline := time.Now().Add(maxWait)

	for {
		job, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if job.Terminal() {
			if job.Status == JobStatusFailed {
				return nil, apierr.New(apierr.CodeAPIError, "partner job failed").
					WithContext("job_id", id).
					WithContext("message", job.Message)
			}
			return job, nil
		}

		if time.Now().Add(pollInterval).After(deadline) {
			return nil, apierr.New(apierr.CodeTimeout, "job did not complete in time").
				WithContext("job_id", id).
				WithContext("status", job.Status).
				WithContext("max_wait", maxWait.String())
		}
		if err := sleepCtx(ctx, pollInterval); err != nil {
			return nil, apierr.Wrap(apierr.CodeTimeout, "job wait cancelled", err)
		}
	}
}
