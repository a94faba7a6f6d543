package store

import (
	"context"
	"sync"

	"github.com/viant/crewflow/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service keyed by
// the value returned from keySelector. When a cloner is set, values are
// copied on the way in and out so that callers never share state.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	order       []K
	keySelector func(*T) K
	cloner      func(*T) *T
	matcher     func(*T, []*dao.Parameter) bool
}

// Option customises a MemoryStore.
type Option[K comparable, T any] func(*MemoryStore[K, T])

// WithCloner copies values on Save and Load.
func WithCloner[K comparable, T any](fn func(*T) *T) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.cloner = fn }
}

// WithMatcher filters List results by parameters.
func WithMatcher[K comparable, T any](fn func(*T, []*dao.Parameter) bool) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.matcher = fn }
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...Option[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (s *MemoryStore[K, T]) copy(v *T) *T {
	if s.cloner == nil || v == nil {
		return v
	}
	return s.cloner(v)
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	v = s.copy(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = v
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.copy(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	for i, candidate := range s.order {
		if candidate == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns stored records in insertion order.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, key := range s.order {
		v := s.records[key]
		if s.matcher != nil && !s.matcher(v, parameters) {
			continue
		}
		out = append(out, s.copy(v))
	}
	return out, nil
}
