package approval

import (
	"context"
	"fmt"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true, "", true) to approve, (false, "…", true) to reject with
// reason; decide=false leaves the request pending.
type DecisionFunc func(r *Request) (approved bool, reason string, decide bool)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request. It returns stop(); call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.ListPending(ctx)
				for _, r := range requests {
					ok, reason, decide := fn(r)
					if !decide {
						continue
					}
					_, _ = svc.Decide(ctx, r.ID, ok, reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) (bool, string, bool) { return true, "", true }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) (bool, string, bool) { return false, reason, true }, interval)
}

// WaitForDecision waits up to timeout for a decision on id.
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Decision, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	decision, err := svc.Wait(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("waiting for decision %s: %w", id, err)
	}
	return decision, nil
}

// PendingFilter narrows ListPending results.
type PendingFilter func(*Request) bool

// WithRunID keeps requests of runID.
func WithRunID(runID string) PendingFilter {
	return func(r *Request) bool { return r.RunID == runID }
}

// WithTaskID keeps requests of taskID.
func WithTaskID(taskID string) PendingFilter {
	return func(r *Request) bool { return r.TaskID == taskID }
}

// WithPipeline keeps requests of pipeline.
func WithPipeline(name string) PendingFilter {
	return func(r *Request) bool { return r.Pipeline == name }
}

// ListPending returns pending requests matching all filters.
func ListPending(ctx context.Context, svc Service, filters ...PendingFilter) ([]*Request, error) {
	requests, err := svc.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*Request, 0, len(requests))
outer:
	for _, r := range requests {
		for _, filter := range filters {
			if !filter(r) {
				continue outer
			}
		}
		ret = append(ret, r)
	}
	return ret, nil
}
