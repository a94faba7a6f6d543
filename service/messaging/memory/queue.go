package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/internal/idgen"
	"github.com/viant/crewflow/service/messaging"
)

// Overflow selects what Publish does when the buffer is full.
type Overflow string

const (
	// OverflowBlock waits for room or context cancellation.
	OverflowBlock Overflow = "block"
	// OverflowDropOldest discards the oldest buffered message.
	OverflowDropOldest Overflow = "dropOldest"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
	Overflow    Overflow
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
		Overflow:    OverflowBlock,
	}
}

// NoticeConfig never blocks publishers: observers that fall behind lose the oldest notices.
func NoticeConfig() Config {
	ret := DefaultConfig()
	ret.QueueBuffer = 256
	ret.Overflow = OverflowDropOldest
	return ret
}

// Message is a single in-memory queue entry.
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
}

// ID returns the message identifier.
func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack requeues the message after RetryDelay, or parks it in the dead letter
// queue once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.retryCount++
	if m.retryCount <= m.queue.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, retryCount: m.retryCount}
		go func() {
			time.Sleep(m.queue.config.RetryDelay)
			retry.createdAt = clock.Now()
			_ = m.queue.enqueue(context.Background(), retry)
		}()
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.dlqMu.Lock()
		m.queue.dlq = append(m.queue.dlq, m)
		m.queue.dlqMu.Unlock()
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	done     chan struct{}
	dlq      []*Message[T]
	config   Config
	mu       sync.Mutex
	dlqMu    sync.Mutex
	closed   bool
	dropped  int
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	if config.Overflow == "" {
		config.Overflow = OverflowBlock
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		done:     make(chan struct{}),
		config:   config,
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("messaging: nil payload")
	}
	msg := &Message[T]{id: idgen.New(), payload: *t, queue: q, createdAt: clock.Now()}
	return q.enqueue(ctx, msg)
}

func (q *Queue[T]) enqueue(ctx context.Context, msg *Message[T]) error {
	if q.config.Overflow == OverflowDropOldest {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed {
			return messaging.ErrClosed
		}
		for {
			select {
			case q.messages <- msg:
				return nil
			default:
			}
			select {
			case <-q.messages:
				q.dropped++
			default:
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return messaging.ErrClosed
	}
	select {
	case <-q.done:
		return messaging.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.messages <- msg:
		return nil
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-q.done:
		return nil, messaging.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases blocked consumers and rejects further publishing.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// Dropped returns how many messages were discarded on overflow.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
