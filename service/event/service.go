package event

import (
	"reflect"
	"sync"

	"github.com/viant/crewflow/service/messaging"
	"github.com/viant/crewflow/service/messaging/memory"
)

// Service hands out one publisher per payload type, all of them mirrored
// into a catch-all queue.
type Service struct {
	publisher       *Publisher[any]
	listener        *Listener[any]
	typedPublishers map[reflect.Type]any
	typedListener   map[reflect.Type]any
	queues          []interface{ Close() }
	mux             *sync.RWMutex
	newQueueConfig  func(name string) memory.Config
}

func (s *Service) SetListener(handler func(*Event[any])) {
	s.mux.Lock()
	previous := s.listener
	s.listener = NewListener[any](s.publisher, handler)
	s.listener.Start()
	s.mux.Unlock()
	if previous != nil {
		previous.Stop()
	}
}

// New creates an event service backed by in-memory queues.
func New(opts ...Option) *Service {
	ret := &Service{
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
		newQueueConfig:  func(string) memory.Config { return memory.NoticeConfig() },
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.publisher = NewPublisher[any](QueueOf[Event[any]](ret, "any"))
	return ret
}

// QueueOf creates a named queue tracked for Close.
func QueueOf[T any](s *Service, name string) messaging.Queue[T] {
	queue := memory.NewQueue[T](s.newQueueConfig(name))
	s.queues = append(s.queues, queue)
	return queue
}

// Close stops listeners and closes every queue.
func (s *Service) Close() {
	s.mux.Lock()
	listeners := make([]interface{ Stop() }, 0, len(s.typedListener)+1)
	if s.listener != nil {
		listeners = append(listeners, s.listener)
		s.listener = nil
	}
	for key, listener := range s.typedListener {
		listeners = append(listeners, listener.(interface{ Stop() }))
		delete(s.typedListener, key)
	}
	queues := s.queues
	s.mux.Unlock()
	for _, listener := range listeners {
		listener.Stop()
	}
	for _, queue := range queues {
		queue.Close()
	}
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// SetListenerOf replaces the listener for events carrying T.
func SetListenerOf[T any](s *Service, handler func(*Event[T])) {
	key := keyOf[T]()
	publisher := PublisherOf[T](s)
	listener := NewListener[T](publisher, handler)
	s.mux.Lock()
	previous, ok := s.typedListener[key]
	s.typedListener[key] = listener
	s.mux.Unlock()
	if ok {
		previous.(*Listener[T]).Stop()
	}
	listener.Start()
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) *Publisher[T] {
	key := keyOf[T]()
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.typedPublishers[key]; ok {
		return ret.(*Publisher[T])
	}
	publisher := NewPublisher[T](QueueOf[Event[T]](s, key.String()))
	publisher.anyQueue = s.publisher.queue
	s.typedPublishers[key] = publisher
	return publisher
}
