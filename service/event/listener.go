package event

import (
	"context"
	"errors"
	"log"

	"github.com/viant/crewflow/service/messaging"
)

// Listener drains a publisher's queue into handler until stopped.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop cancels the listener and waits for the consuming goroutine to exit.
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(l.ctx)
			if err != nil {
				if l.ctx.Err() != nil || errors.Is(err, messaging.ErrClosed) {
					return
				}
				log.Printf("crewflow: error consuming event: %v", err)
				continue
			}
			if event != nil {
				l.handler(event)
			}
		}
	}()
}
