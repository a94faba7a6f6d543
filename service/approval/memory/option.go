package memory

import (
	approval "github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/messaging"
)

type Option func(*service)

// WithQueue replaces the default event queue.
func WithQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}
