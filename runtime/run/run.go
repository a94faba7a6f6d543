package run

import (
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model"
)

// Run is the mutable accumulator of one pipeline invocation. Exactly one
// driver goroutine mutates a run; readers go through Summary or Clone.
type Run struct {
	ID         string                 `json:"id"`
	Pipeline   string                 `json:"pipeline"`
	ReplayOf   string                 `json:"replayOf,omitempty"`
	SCN        int                    `json:"scn"`
	State      State                  `json:"state"`
	Input      map[string]interface{} `json:"input,omitempty"`
	Outputs    []*Output              `json:"outputs,omitempty"`
	Position   int                    `json:"position"`
	Pending    *Checkpoint            `json:"pending,omitempty"`
	Decisions  []*Decision            `json:"decisions,omitempty"`
	Cause      *Cause                 `json:"cause,omitempty"`
	Handoff    *HandoffOutcome        `json:"handoff,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	mu         sync.RWMutex
}

// New creates a pending run.
func New(id, pipeline string, input map[string]interface{}) *Run {
	now := clock.Now()
	if input == nil {
		input = map[string]interface{}{}
	}
	return &Run{ID: id, Pipeline: pipeline, State: StatePending, Input: input, CreatedAt: now, UpdatedAt: now}
}

func (r *Run) touch() {
	r.SCN++
	r.UpdatedAt = clock.Now()
}

func (r *Run) transition(to State) error {
	if err := checkTransition(r.State, to); err != nil {
		return err
	}
	r.State = to
	if to.IsTerminal() {
		now := clock.Now()
		r.FinishedAt = &now
	}
	r.touch()
	return nil
}

// Transition moves the run to the supplied state.
func (r *Run) Transition(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(to)
}

// GetState returns the current state.
func (r *Run) GetState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// Seed records outputs carried over from a replayed run and moves the position past them.
func (r *Run) Seed(outputs []*Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, output := range outputs {
		clone := *output
		r.Outputs = append(r.Outputs, &clone)
	}
	r.Position = len(r.Outputs)
	r.touch()
}

// Record appends a task output and advances the position pointer.
func (r *Run) Record(output *Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outputs = append(r.Outputs, output)
	r.Position++
	r.touch()
}

// Suspend parks the run on a checkpoint.
func (r *Run) Suspend(checkpoint *Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transition(StateSuspended); err != nil {
		return err
	}
	r.Pending = checkpoint
	return nil
}

// Approve resumes a suspended run and records the proposal as the task output.
func (r *Run) Approve(decision *Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transition(StateRunning); err != nil {
		return err
	}
	pending := r.Pending
	r.Pending = nil
	r.Decisions = append(r.Decisions, decision)
	if pending == nil {
		return nil
	}
	approved := true
	r.Outputs = append(r.Outputs, &Output{
		TaskID:      pending.TaskID,
		Executor:    pending.Executor,
		Content:     pending.Proposed,
		Feedback:    decision.Feedback,
		Approved:    &approved,
		Iterations:  pending.Iterations,
		StartedAt:   pending.StartedAt,
		CompletedAt: decision.DecidedAt,
	})
	r.Position++
	return nil
}

// Reject terminates a suspended run at its checkpoint.
func (r *Run) Reject(decision *Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transition(StateRejected); err != nil {
		return err
	}
	r.Pending = nil
	r.Decisions = append(r.Decisions, decision)
	r.Cause = &Cause{Kind: string(model.KindRejected), TaskID: decision.TaskID, Feedback: decision.Feedback}
	return nil
}

// Fail terminates the run at taskID.
func (r *Run) Fail(taskID string, kind model.ErrorKind, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.transition(StateFailed); e != nil {
		return e
	}
	r.Pending = nil
	r.Cause = &Cause{Kind: string(kind), TaskID: taskID}
	if err != nil {
		r.Cause.Message = err.Error()
	}
	return nil
}

// Cancel terminates the run at taskID; the in-flight task result, if any, is dropped.
func (r *Run) Cancel(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Pending != nil {
		taskID = r.Pending.TaskID
	}
	if err := r.transition(StateCancelled); err != nil {
		return err
	}
	r.Pending = nil
	r.Cause = &Cause{Kind: string(model.KindCancelled), TaskID: taskID}
	return nil
}

// Complete marks the run completed with an optional handoff outcome.
func (r *Run) Complete(handoff *HandoffOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transition(StateCompleted); err != nil {
		return err
	}
	r.Handoff = handoff
	return nil
}

// Decision returns the recorded decision for taskID.
func (r *Run) Decision(taskID string) *Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, decision := range r.Decisions {
		if decision.TaskID == taskID {
			return decision
		}
	}
	return nil
}

// PendingTaskID returns the checkpoint task id the run is parked on.
func (r *Run) PendingTaskID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.State != StateSuspended || r.Pending == nil {
		return ""
	}
	return r.Pending.TaskID
}

// OutputsSnapshot returns a copy of the recorded outputs.
func (r *Run) OutputsSnapshot() []*Output {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneOutputs(r.Outputs)
}

// GetPosition returns the position pointer.
func (r *Run) GetPosition() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Position
}

// Clone returns a deep copy detached from the driver.
func (r *Run) Clone() *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := &Run{
		ID:        r.ID,
		Pipeline:  r.Pipeline,
		ReplayOf:  r.ReplayOf,
		SCN:       r.SCN,
		State:     r.State,
		Input:     r.Input,
		Outputs:   cloneOutputs(r.Outputs),
		Position:  r.Position,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Pending != nil {
		pending := *r.Pending
		ret.Pending = &pending
	}
	for _, decision := range r.Decisions {
		clone := *decision
		ret.Decisions = append(ret.Decisions, &clone)
	}
	if r.Cause != nil {
		cause := *r.Cause
		ret.Cause = &cause
	}
	if r.Handoff != nil {
		handoff := *r.Handoff
		ret.Handoff = &handoff
	}
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		ret.FinishedAt = &finished
	}
	return ret
}

func cloneOutputs(outputs []*Output) []*Output {
	ret := make([]*Output, 0, len(outputs))
	for _, output := range outputs {
		clone := *output
		ret = append(ret, &clone)
	}
	return ret
}

// Fields exposes filterable attributes for DAO listings.
func (r *Run) Fields() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]string{"ID": r.ID, "Pipeline": r.Pipeline, "State": string(r.State), "ReplayOf": r.ReplayOf}
}
