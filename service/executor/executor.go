package executor

import (
	"context"
	"time"
)

// Prior is the output of an already completed task.
type Prior struct {
	TaskID   string `json:"taskId"`
	Executor string `json:"executor,omitempty"`
	Content  string `json:"content"`
	Feedback string `json:"feedback,omitempty"`
}

// Request is a single task invocation.
type Request struct {
	RunID        string
	TaskID       string
	Instructions string
	Inputs       map[string]interface{}
	Prior        []Prior
	Now          time.Time
}

// PriorMap returns prior outputs keyed by task id.
func (r *Request) PriorMap() map[string]string {
	ret := make(map[string]string, len(r.Prior))
	for _, prior := range r.Prior {
		ret[prior.TaskID] = prior.Content
	}
	return ret
}

// Result is what an executor produced for a task.
type Result struct {
	Content    string `json:"content"`
	Iterations int    `json:"iterations"`
	TokensIn   int64  `json:"tokensIn,omitempty"`
	TokensOut  int64  `json:"tokensOut,omitempty"`
}

// Executor invokes one task. Implementations enforce their own iteration
// bound and return an error wrapping ErrExhausted when it is hit.
type Executor interface {
	Invoke(ctx context.Context, request *Request) (*Result, error)
}

// Func adapts a function to Executor.
type Func func(ctx context.Context, request *Request) (*Result, error)

// Invoke calls fn.
func (fn Func) Invoke(ctx context.Context, request *Request) (*Result, error) {
	return fn(ctx, request)
}
