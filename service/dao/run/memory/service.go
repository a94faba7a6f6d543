package memory

import (
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/dao/criteria"
	"github.com/viant/crewflow/service/dao/store"
)

// Service implements an in-memory, thread-safe run store. Runs are cloned
// on every Save and Load so that callers never share the driver's copy.
type Service struct {
	*store.MemoryStore[string, run.Run]
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

// New creates an in-memory run store.
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, run.Run](
		func(r *run.Run) string { return r.ID },
		store.WithCloner[string, run.Run](func(r *run.Run) *run.Run { return r.Clone() }),
		store.WithMatcher[string, run.Run](func(r *run.Run, parameters []*dao.Parameter) bool {
			return criteria.Match(r.Fields(), parameters)
		}),
	)}
}
