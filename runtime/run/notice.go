package run

// NoticeType names a run lifecycle event.
type NoticeType string

const (
	NoticeRunStarted         NoticeType = "run.started"
	NoticeTaskCompleted      NoticeType = "task.completed"
	NoticeCheckpointPending  NoticeType = "checkpoint.pending"
	NoticeCheckpointResolved NoticeType = "checkpoint.resolved"
	NoticeRunCompleted       NoticeType = "run.completed"
	NoticeRunRejected        NoticeType = "run.rejected"
	NoticeRunFailed          NoticeType = "run.failed"
	NoticeRunCancelled       NoticeType = "run.cancelled"
	NoticeHandoffFailed      NoticeType = "handoff.failed"
)

// IsTerminal reports whether t ends a run.
func (t NoticeType) IsTerminal() bool {
	switch t {
	case NoticeRunCompleted, NoticeRunRejected, NoticeRunFailed, NoticeRunCancelled:
		return true
	}
	return false
}

// Notice is published on every run lifecycle change.
type Notice struct {
	Type     NoticeType `json:"type"`
	RunID    string     `json:"runId"`
	Pipeline string     `json:"pipeline,omitempty"`
	TaskID   string     `json:"taskId,omitempty"`
	Proposed string     `json:"proposed,omitempty"`
	Status   string     `json:"status"`
	// Seeded counts outputs copied from a replay source; set on run.started.
	Seeded int `json:"seeded,omitempty"`
}

// NewNotice creates a notice of type t for the run's current status.
func (r *Run) NewNotice(t NoticeType, taskID string) *Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := &Notice{Type: t, RunID: r.ID, Pipeline: r.Pipeline, TaskID: taskID, Status: r.status()}
	switch {
	case t == NoticeCheckpointPending && r.Pending != nil:
		ret.Proposed = r.Pending.Proposed
	case t == NoticeRunStarted:
		ret.Seeded = r.Position
	}
	return ret
}
