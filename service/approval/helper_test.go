package approval_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	approval "github.com/viant/crewflow/service/approval"
	memApproval "github.com/viant/crewflow/service/approval/memory"
)

// TestWaitForDecision verifies that WaitForDecision blocks until a decision
// is recorded and returns it.
func TestWaitForDecision(t *testing.T) {
	tests := []struct {
		name        string
		approve     bool
		expectError bool
		timeout     time.Duration
		decideDelay time.Duration
	}{
		{name: "approved before timeout", approve: true, timeout: 500 * time.Millisecond, decideDelay: 10 * time.Millisecond},
		{name: "rejected before timeout", approve: false, timeout: 500 * time.Millisecond, decideDelay: 10 * time.Millisecond},
		{name: "timeout waiting for decision", approve: true, expectError: true, timeout: 30 * time.Millisecond, decideDelay: 100 * time.Millisecond},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc := memApproval.New()
			req := &approval.Request{RunID: "run-1", TaskID: "approve_campaign_launch", Proposed: "launch plan"}
			assert.NoError(t, svc.RequestApproval(ctx, req))
			assert.Equal(t, "run-1/approve_campaign_launch", req.ID)

			go func() {
				time.Sleep(tc.decideDelay)
				_, _ = svc.Decide(ctx, req.ID, tc.approve, "")
			}()

			dec, err := approval.WaitForDecision(ctx, svc, req.ID, tc.timeout)
			if tc.expectError {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.EqualValues(t, &approval.Decision{ID: req.ID, Approved: tc.approve, DecidedAt: dec.DecidedAt}, dec)
		})
	}
}

func TestDecideIdempotence(t *testing.T) {
	ctx := context.Background()
	svc := memApproval.New()
	assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "r1", RunID: "run-1", TaskID: "B"}))

	first, err := svc.Decide(ctx, "r1", true, "looks good")
	assert.NoError(t, err)
	second, err := svc.Decide(ctx, "r1", true, "again")
	assert.NoError(t, err)
	assert.Equal(t, first.DecidedAt, second.DecidedAt)
	assert.Equal(t, "looks good", second.Reason)

	_, err = svc.Decide(ctx, "r1", false, "changed my mind")
	assert.ErrorIs(t, err, approval.ErrAlreadyDecided)

	_, err = svc.Decide(ctx, "missing", true, "")
	assert.ErrorIs(t, err, approval.ErrNotFound)

	pending, err := svc.ListPending(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	svc := memApproval.New()
	assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "r1"}))

	errs := make(chan error, 1)
	go func() {
		_, err := svc.Wait(ctx, "r1")
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, svc.Withdraw(ctx, "r1"))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, approval.ErrWithdrawn)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
	_, err := svc.Decide(ctx, "r1", true, "")
	assert.ErrorIs(t, err, approval.ErrNotFound)
	_, err = svc.Wait(ctx, "r1")
	assert.ErrorIs(t, err, approval.ErrWithdrawn)
}

func TestForget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc := memApproval.New()

	assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "decided"}))
	_, err := svc.Decide(ctx, "decided", true, "")
	assert.NoError(t, err)
	assert.NoError(t, svc.Forget(ctx, "decided"))
	_, err = svc.Decision(ctx, "decided")
	assert.ErrorIs(t, err, approval.ErrNotFound)

	assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "open"}))
	waited := make(chan error, 1)
	go func() {
		_, err := svc.Wait(ctx, "open")
		waited <- err
	}()
	assert.Eventually(t, func() bool {
		pending, _ := svc.ListPending(ctx)
		return len(pending) == 1
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, svc.Forget(ctx, "open"))
	pending, err := svc.ListPending(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	assert.NoError(t, svc.Forget(ctx, "missing"))
	select {
	case err := <-waited:
		assert.True(t, errors.Is(err, approval.ErrWithdrawn) || errors.Is(err, approval.ErrNotFound), err)
	case <-ctx.Done():
		t.Fatal("waiter was not released")
	}
}

func TestQueueEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc := memApproval.New()
	assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "r1"}))
	_, _ = svc.Decide(ctx, "r1", false, "no")

	var topics []string
	for i := 0; i < 2; i++ {
		msg, err := svc.Queue().Consume(ctx)
		if !assert.NoError(t, err) {
			return
		}
		topics = append(topics, msg.T().Topic)
		_ = msg.Ack()
	}
	assert.Equal(t, []string{approval.TopicRequestCreated, approval.TopicDecisionCreated}, topics)
}

// TestListPending verifies that ListPending helper applies filters correctly.
func TestListPending(t *testing.T) {
	ctx := context.Background()
	svc := memApproval.New()

	now := time.Now()
	requests := []*approval.Request{
		{ID: "r1", RunID: "p1", TaskID: "a1", CreatedAt: now},
		{ID: "r2", RunID: "p1", TaskID: "a2", CreatedAt: now},
		{ID: "r3", RunID: "p2", TaskID: "a1", CreatedAt: now},
	}
	for _, r := range requests {
		assert.NoError(t, svc.RequestApproval(ctx, r))
	}

	tests := []struct {
		name     string
		filters  []approval.PendingFilter
		expected []*approval.Request
	}{
		{name: "filter by run", filters: []approval.PendingFilter{approval.WithRunID("p1")}, expected: []*approval.Request{requests[0], requests[1]}},
		{name: "filter by task", filters: []approval.PendingFilter{approval.WithTaskID("a1")}, expected: []*approval.Request{requests[0], requests[2]}},
		{name: "filter by run and task", filters: []approval.PendingFilter{approval.WithRunID("p1"), approval.WithTaskID("a1")}, expected: []*approval.Request{requests[0]}},
		{name: "no filters", expected: requests},
	}

	sortByID := func(in []*approval.Request) []*approval.Request {
		out := make([]*approval.Request, len(in))
		copy(out, in)
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := approval.ListPending(ctx, svc, tc.filters...)
			assert.NoError(t, err)
			assert.EqualValues(t, sortByID(tc.expected), sortByID(actual))
		})
	}

	t.Run("auto approve", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc := memApproval.New()
		assert.NoError(t, svc.RequestApproval(ctx, &approval.Request{ID: "auto"}))
		stop := approval.AutoApprove(ctx, svc, 5*time.Millisecond)
		defer stop()
		dec, err := approval.WaitForDecision(ctx, svc, "auto", 500*time.Millisecond)
		if assert.NoError(t, err) {
			assert.True(t, dec.Approved)
		}
	})
}
