package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model"
)

func TestRunLifecycle(t *testing.T) {
	defer clock.Pin(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))()

	testCases := []struct {
		description string
		drive       func(r *Run) error
		expectState State
		expectText  string
		expectTasks []string
	}{
		{
			description: "approve checkpoint then complete",
			drive: func(r *Run) error {
				_ = r.Transition(StateRunning)
				r.Record(&Output{TaskID: "A", Content: "a"})
				if err := r.Suspend(&Checkpoint{TaskID: "B", Proposed: "b"}); err != nil {
					return err
				}
				if err := r.Approve(&Decision{TaskID: "B", Verdict: VerdictApprove, Feedback: "ok"}); err != nil {
					return err
				}
				r.Record(&Output{TaskID: "C", Content: "c"})
				return r.Complete(nil)
			},
			expectState: StateCompleted,
			expectText:  "completed",
			expectTasks: []string{"A", "B", "C"},
		},
		{
			description: "reject checkpoint",
			drive: func(r *Run) error {
				_ = r.Transition(StateRunning)
				r.Record(&Output{TaskID: "A"})
				_ = r.Suspend(&Checkpoint{TaskID: "B", Proposed: "b"})
				return r.Reject(&Decision{TaskID: "B", Verdict: VerdictReject, Feedback: "no"})
			},
			expectState: StateRejected,
			expectText:  "rejected_at:B",
			expectTasks: []string{"A"},
		},
		{
			description: "executor exhausted",
			drive: func(r *Run) error {
				_ = r.Transition(StateRunning)
				return r.Fail("A", model.KindExhausted, errors.New("max iterations"))
			},
			expectState: StateFailed,
			expectText:  "failed_at:A",
			expectTasks: []string{},
		},
		{
			description: "cancel while suspended",
			drive: func(r *Run) error {
				_ = r.Transition(StateRunning)
				_ = r.Suspend(&Checkpoint{TaskID: "A"})
				return r.Cancel("")
			},
			expectState: StateCancelled,
			expectText:  "cancelled",
			expectTasks: []string{},
		},
		{
			description: "suspended status",
			drive: func(r *Run) error {
				_ = r.Transition(StateRunning)
				return r.Suspend(&Checkpoint{TaskID: "A", Proposed: "draft"})
			},
			expectState: StateSuspended,
			expectText:  "suspended_at:A",
			expectTasks: []string{},
		},
	}

	for _, testCase := range testCases {
		r := New("run-1", "p", map[string]interface{}{"x": 1})
		assert.NoError(t, testCase.drive(r), testCase.description)
		summary := r.Summary()
		assert.Equal(t, testCase.expectState, summary.State, testCase.description)
		assert.Equal(t, testCase.expectText, summary.Status, testCase.description)
		assert.Equal(t, testCase.expectTasks, summary.TaskIDs(), testCase.description)
	}
}

func TestRunInvalidTransition(t *testing.T) {
	r := New("run-1", "p", nil)
	assert.ErrorIs(t, r.Transition(StateSuspended), ErrInvalidTransition)
	assert.NoError(t, r.Transition(StateRunning))
	assert.NoError(t, r.Complete(&HandoffOutcome{Delivered: false, Error: "timeout"}))
	assert.ErrorIs(t, r.Transition(StateRunning), ErrInvalidTransition)
	assert.ErrorIs(t, r.Cancel(""), ErrInvalidTransition)

	summary := r.Summary()
	assert.Equal(t, "completed", summary.Status)
	assert.True(t, summary.HandoffFailed)
	assert.NotNil(t, r.FinishedAt)
}

func TestRunSummaryIsDetached(t *testing.T) {
	r := New("run-1", "p", nil)
	_ = r.Transition(StateRunning)
	r.Record(&Output{TaskID: "A", Content: "a"})
	summary := r.Summary()
	summary.Outputs[0].Content = "changed"
	assert.Equal(t, "a", r.Summary().Output("A").Content)

	clone := r.Clone()
	clone.Outputs[0].Content = "changed"
	assert.Equal(t, "a", r.OutputsSnapshot()[0].Content)
}

func TestRunNotice(t *testing.T) {
	r := New("run-1", "p", nil)
	_ = r.Transition(StateRunning)
	_ = r.Suspend(&Checkpoint{TaskID: "B", Proposed: "proposal"})
	notice := r.NewNotice(NoticeCheckpointPending, "B")
	assert.Equal(t, "proposal", notice.Proposed)
	assert.Equal(t, "suspended_at:B", notice.Status)
	assert.Equal(t, "B", r.PendingTaskID())
}
