package device

import (
	"context"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Start launches the goroutine that delivers queued notifications to
// listeners. Notifications raised before Start wait in the queue.
// Calling Start more than once has no effect.
func (r *Registry) Start(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.dispatch(ctx)
}

// Stop ends delivery after flushing notifications already queued.
// It is safe to call without Start and more than once.
func (r *Registry) Stop() {
	r.runMu.Lock()
	cancel, done := r.cancel, r.done
	r.runMu.Unlock()
	if cancel == nil {
		return
	}

	r.stopOnce.Do(cancel)
	<-done
}

// enqueue is every controller's OnChange. It never blocks.
func (r *Registry) enqueue(state light.State) {
	select {
	case r.events <- state:
	default:
		r.logger.Warn("listener queue full, dropping state change",
			"light", state.Name,
			"source", string(state.Source),
		)
	}
}

func (r *Registry) dispatch(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case state := <-r.events:
			r.deliver(state)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

// drain delivers whatever is already queued.
func (r *Registry) drain() {
	for {
		select {
		case state := <-r.events:
			r.deliver(state)
		default:
			return
		}
	}
}

func (r *Registry) deliver(state light.State) {
	r.listenerMu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenerMu.RUnlock()

	for _, l := range listeners {
		r.safeCall(l, state)
	}
}

// safeCall isolates listeners from each other's panics.
func (r *Registry) safeCall(l Listener, state light.State) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("state listener panic recovered", "light", state.Name, "panic", p)
		}
	}()
	l(state)
}
