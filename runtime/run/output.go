package run

import "time"

// Verdict is a human decision on a checkpoint.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
)

// IsValid reports whether v is approve or reject.
func (v Verdict) IsValid() bool { return v == VerdictApprove || v == VerdictReject }

// Output is the recorded result of one task.
type Output struct {
	TaskID      string    `json:"taskId"`
	Executor    string    `json:"executor"`
	Content     string    `json:"content"`
	Feedback    string    `json:"feedback,omitempty"`
	Approved    *bool     `json:"approved,omitempty"`
	Iterations  int       `json:"iterations,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Checkpoint is a proposal awaiting human review.
type Checkpoint struct {
	TaskID      string    `json:"taskId"`
	Executor    string    `json:"executor"`
	Proposed    string    `json:"proposed"`
	ApprovalID  string    `json:"approvalId,omitempty"`
	Iterations  int       `json:"iterations,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Decision resolves a checkpoint.
type Decision struct {
	TaskID    string    `json:"taskId"`
	Verdict   Verdict   `json:"verdict"`
	Feedback  string    `json:"feedback,omitempty"`
	DecidedAt time.Time `json:"decidedAt,omitempty"`
}

// Cause records why a run stopped short of completion.
type Cause struct {
	Kind     string `json:"kind"`
	TaskID   string `json:"taskId,omitempty"`
	Message  string `json:"message,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// HandoffOutcome records the terminal downstream invocation.
type HandoffOutcome struct {
	URL        string    `json:"url,omitempty"`
	Delivered  bool      `json:"delivered"`
	StatusCode int       `json:"statusCode,omitempty"`
	KickoffID  string    `json:"kickoffId,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}
