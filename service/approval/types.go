package approval

import (
	"errors"
	"time"
)

// Event is published on the service queue for every request and decision.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"` // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"`
}

// Standard event topics.
const (
	TopicRequestCreated   = "request.created"
	TopicRequestWithdrawn = "request.withdrawn"
	TopicDecisionCreated  = "decision.created"
)

var (
	// ErrNotFound is returned for an unknown or withdrawn request.
	ErrNotFound = errors.New("approval: request not found")
	// ErrAlreadyDecided is returned when a request is decided twice with different verdicts.
	ErrAlreadyDecided = errors.New("approval: already decided")
	// ErrWithdrawn is returned to waiters when the request is released without a decision.
	ErrWithdrawn = errors.New("approval: request withdrawn")
)

// Request represents a checkpoint proposal awaiting review.
type Request struct {
	ID        string                 `json:"id"`
	RunID     string                 `json:"runId"`
	Pipeline  string                 `json:"pipeline,omitempty"`
	TaskID    string                 `json:"taskId"`
	Executor  string                 `json:"executor,omitempty"`
	Proposed  string                 `json:"proposed"`
	CreatedAt time.Time              `json:"createdAt"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Expired reports whether the request deadline has passed at now.
func (r *Request) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Decision represents approval decision
type Decision struct {
	ID        string    `json:"id"` // same as request.ID
	Approved  bool      `json:"approved"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}

// RequestID derives the request id of a checkpoint.
func RequestID(runID, taskID string) string {
	return runID + "/" + taskID
}
