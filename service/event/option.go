package event

import (
	"github.com/viant/crewflow/service/messaging/memory"
)

type Option func(s *Service)

// WithNewMemoryQueueConfig sets the per-topic memory queue configuration.
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.newQueueConfig = newConfig
	}
}
