package g2a

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keymarket/g2a-connect/apierr"
)

func TestJobsWaitForCompletionSucceeds(t *testing.T) {
	var polls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			w.Write([]byte(`{"id":"j1","status":"RUNNING"}`))
			return
		}
		w.Write([]byte(`{"id":"j1","status":"COMPLETED","resourceId":"off-7"}`))
	}), nil)

	job, err := c.Jobs.WaitForCompletion(context.Background(), "j1", time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("WaitForCompletion() error = %v", err)
	}
	if job.Status != JobStatusCompleted || job.ResourceID != "off-7" {
		t.Errorf("job = %+v", job)
	}
	if got := atomic.LoadInt32(&polls); got != 3 {
		t.Errorf("polled %d times, want 3", got)
	}
}

func TestJobsWaitForCompletionFailedJob(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"j1","status":"FAILED","message":"duplicate offer"}`))
	}), nil)

	_, err := c.Jobs.WaitForCompletion(context.Background(), "j1", time.Millisecond, time.Second)
	if apierr.CodeOf(err) != apierr.CodeAPIError {
		t.Fatalf("code = %v, want API_ERROR", apierr.CodeOf(err))
	}
}

func TestJobsWaitForCompletionBounded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"j1","status":"RUNNING"}`))
	}), nil)

	start := time.Now()
	_, err := c.Jobs.WaitForCompletion(context.Background(), "j1", 5*time.Millisecond, 25*time.Millisecond)
	if apierr.CodeOf(err) != apierr.CodeTimeout {
		t.Fatalf("code = %v, want TIMEOUT", apierr.CodeOf(err))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait ran %v, should stay near the 25ms bound", elapsed)
	}
}
