package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/internal/idgen"
	approval "github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/dao/store"
	"github.com/viant/crewflow/service/messaging"
	qmem "github.com/viant/crewflow/service/messaging/memory"
)

type waiter struct {
	done      chan struct{}
	withdrawn bool
}

type service struct {
	reqDAO dao.Service[string, approval.Request]
	decDAO dao.Service[string, approval.Decision]
	events messaging.Queue[approval.Event]

	mu      sync.Mutex
	waiters map[string]*waiter
}

func reqKey(r *approval.Request) string  { return r.ID }
func decKey(d *approval.Decision) string { return d.ID }

func cloneRequest(r *approval.Request) *approval.Request {
	ret := *r
	return &ret
}

func cloneDecision(d *approval.Decision) *approval.Decision {
	ret := *d
	return &ret
}

// New creates an in-memory approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		reqDAO:  store.NewMemoryStore[string, approval.Request](reqKey, store.WithCloner[string, approval.Request](cloneRequest)),
		decDAO:  store.NewMemoryStore[string, approval.Decision](decKey, store.WithCloner[string, approval.Decision](cloneDecision)),
		events:  qmem.NewQueue[approval.Event](qmem.NoticeConfig()),
		waiters: map[string]*waiter{},
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// waiterFor must be called with s.mu held.
func (s *service) waiterFor(id string) *waiter {
	w, ok := s.waiters[id]
	if !ok {
		w = &waiter{done: make(chan struct{})}
		s.waiters[id] = w
	}
	return w
}

func (s *service) RequestApproval(ctx context.Context, r *approval.Request) error {
	if r == nil {
		return errors.New("approval: nil request")
	}
	if r.ID == "" {
		if r.RunID != "" && r.TaskID != "" {
			r.ID = approval.RequestID(r.RunID, r.TaskID)
		} else {
			r.ID = idgen.New()
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}
	s.mu.Lock()
	if w, ok := s.waiters[r.ID]; ok && w.withdrawn {
		delete(s.waiters, r.ID)
	}
	s.waiterFor(r.ID)
	s.mu.Unlock()
	if err := s.reqDAO.Save(ctx, r); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: cloneRequest(r)})
	return nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	all, err := s.reqDAO.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if _, err := s.decDAO.Load(ctx, r.ID); errors.Is(err, dao.ErrNotFound) {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (s *service) Decide(ctx context.Context, id string, ok bool, reason string) (*approval.Decision, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", approval.ErrNotFound)
	}
	s.mu.Lock()
	if _, err := s.reqDAO.Load(ctx, id); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	if existing, err := s.decDAO.Load(ctx, id); err == nil {
		s.mu.Unlock()
		if existing.Approved == ok {
			return existing, nil
		}
		return existing, fmt.Errorf("%w: %s", approval.ErrAlreadyDecided, id)
	}
	d := &approval.Decision{ID: id, Approved: ok, Reason: reason, DecidedAt: clock.Now()}
	if err := s.decDAO.Save(ctx, d); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	close(s.waiterFor(id).done)
	s.mu.Unlock()
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: cloneDecision(d)})
	return d, nil
}

func (s *service) Decision(ctx context.Context, id string) (*approval.Decision, error) {
	d, err := s.decDAO.Load(ctx, id)
	if errors.Is(err, dao.ErrNotFound) {
		if _, reqErr := s.reqDAO.Load(ctx, id); reqErr != nil {
			return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
		}
		return nil, nil
	}
	return d, err
}

func (s *service) Wait(ctx context.Context, id string) (*approval.Decision, error) {
	s.mu.Lock()
	if _, err := s.reqDAO.Load(ctx, id); err != nil {
		w, ok := s.waiters[id]
		s.mu.Unlock()
		if ok && w.withdrawn {
			return nil, approval.ErrWithdrawn
		}
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	w := s.waiterFor(id)
	s.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if w.withdrawn {
		return nil, approval.ErrWithdrawn
	}
	return s.decDAO.Load(ctx, id)
}

func (s *service) Withdraw(ctx context.Context, id string) error {
	s.mu.Lock()
	r, err := s.reqDAO.Load(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	if _, err := s.decDAO.Load(ctx, id); err == nil {
		s.mu.Unlock()
		return nil
	}
	if err := s.reqDAO.Delete(ctx, id); err != nil {
		s.mu.Unlock()
		return err
	}
	w := s.waiterFor(id)
	w.withdrawn = true
	close(w.done)
	s.mu.Unlock()
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestWithdrawn, Data: r})
	return nil
}

func (s *service) Forget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reqDAO.Delete(ctx, id); err != nil && !errors.Is(err, dao.ErrNotFound) {
		return err
	}
	if err := s.decDAO.Delete(ctx, id); err != nil && !errors.Is(err, dao.ErrNotFound) {
		return err
	}
	if w, ok := s.waiters[id]; ok {
		select {
		case <-w.done:
		default:
			w.withdrawn = true
			close(w.done)
		}
		delete(s.waiters, id)
	}
	return nil
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
