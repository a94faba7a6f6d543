package processor

import (
	"time"

	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/handoff"
)

type Option func(*Service)

// WithRunDAO sets the run store implementation
func WithRunDAO(runDAO dao.Service[string, run.Run]) Option {
	return func(s *Service) {
		s.runDAO = runDAO
	}
}

// WithApprovalService sets the checkpoint gate
func WithApprovalService(approvals approval.Service) Option {
	return func(s *Service) {
		s.approvals = approvals
	}
}

// WithEventService sets the service run notices are published to
func WithEventService(events *event.Service) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithRegistry sets the registry executors are resolved through
func WithRegistry(registry *executor.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithObserver registers fn to receive every run notice synchronously,
// before the notice is published to the event service.
func WithObserver(fn func(*run.Notice)) Option {
	return func(s *Service) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithExecutor binds a ready executor to a profile name, bypassing the registry for it.
func WithExecutor(name string, anExecutor executor.Executor) Option {
	return func(s *Service) {
		if s.executors == nil {
			s.executors = map[string]executor.Executor{}
		}
		s.executors[name] = anExecutor
	}
}

// WithHandoffOptions customises the handoff client.
func WithHandoffOptions(opts ...handoff.Option) Option {
	return func(s *Service) {
		s.handoffOptions = append(s.handoffOptions, opts...)
	}
}

// WithCheckpointTimeout sets the checkpoint expiry.
func WithCheckpointTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.CheckpointTimeout = timeout
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
