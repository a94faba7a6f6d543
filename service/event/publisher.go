package event

import (
	"context"
	"errors"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/service/messaging"
)

// ErrNilEvent is returned when publishing nil.
var ErrNilEvent = errors.New("event: nil event")

// Publisher sends events carrying T to a typed queue; the service wires a
// catch-all mirror so untyped listeners observe every event.
type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
}

// NewPublisher creates a publisher over queue.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps event and sends it to the typed queue, then the mirror.
// A full mirror never blocks the typed delivery.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event == nil {
		return ErrNilEvent
	}
	event.CreatedAt = clock.Now()
	if err := p.queue.Publish(ctx, event); err != nil {
		return err
	}
	p.mirror(ctx, event)
	return nil
}

func (p *Publisher[T]) mirror(ctx context.Context, event *Event[T]) {
	if p.anyQueue == nil {
		return
	}
	_ = p.anyQueue.Publish(ctx, &Event[any]{
		Context:   event.Context,
		CreatedAt: event.CreatedAt,
		Metadata:  event.Metadata,
		Data:      event.Data,
	})
}

// Consume blocks for the next event and acknowledges it.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
