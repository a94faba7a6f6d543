// Package event provides typed publishers and listeners layered over
// messaging queues. The processor publishes run notices through it.
package event

import (
	"time"

	"github.com/viant/crewflow/internal/clock"
)

// Context identifies what an event is about.
type Context struct {
	RunID     string `json:"runId"`
	TaskID    string `json:"taskId,omitempty"`
	EventType string `json:"eventType"`
	Pipeline  string `json:"pipeline,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
