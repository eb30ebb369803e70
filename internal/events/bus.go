package events

import (
	"context"
	"sync"

	"carbot_backend/platform/logger"
)

// InMemoryBus dispatches events within one process. Publish runs each
// handler on its own goroutine with a context detached from the caller's
// cancellation: the typical publisher is an HTTP handler whose request
// context dies as soon as the response is written, and subscribers
// (scoring, alert mail) must still finish their database and SMTP work.
// PublishSync runs handlers inline and keeps the caller's context.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously. Handler
// errors are logged, not propagated.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventName()]
	b.mu.RUnlock()

	// Values (request id, tenant) survive, the caller's cancellation
	// does not.
	detached := context.WithoutCancel(ctx)

	for _, h := range handlers {
		handler := h
		go func() {
			if err := handler.Handle(detached, event); err != nil && b.log != nil {
				b.log.Error("event handler failed",
					"event", event.EventName(),
					"tenant_id", event.Tenant().String(),
					"error", err)
			}
		}()
	}
}

// PublishSync dispatches the event to all handlers inline and returns the
// first error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventName()]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

var _ Bus = (*InMemoryBus)(nil)
