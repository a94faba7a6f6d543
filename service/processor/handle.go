package processor

import (
	"context"
	"sync"

	"github.com/viant/crewflow/runtime/run"
)

// handle tracks a live run. changed is closed and replaced on every state
// change so that any number of waiters can observe it.
type handle struct {
	run     *run.Run
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	changed chan struct{}
}

func newHandle(r *run.Run, cancel context.CancelFunc) *handle {
	return &handle{run: r, cancel: cancel, done: make(chan struct{}), changed: make(chan struct{})}
}

func (h *handle) watch() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changed
}

func (h *handle) notify() {
	h.mu.Lock()
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// until blocks until cond holds, ctx is done or the driver exits.
func (h *handle) until(ctx context.Context, cond func(r *run.Run) bool) error {
	for {
		changed := h.watch()
		if cond(h.run) {
			return nil
		}
		select {
		case <-changed:
		case <-h.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
