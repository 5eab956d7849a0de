// internal/orchestrator/events.go
package orchestrator

import (
	"sync"

	"sneakscout/internal/models"
)

// EventListener receives run lifecycle events. Listeners are invoked
// synchronously on the emitting goroutine and must return quickly.
type EventListener func(event models.Event)

// EventBus fans run events out to registered listeners. Registration order
// is delivery order.
type EventBus struct {
	mu        sync.RWMutex
	listeners []EventListener
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all subsequent events.
func (b *EventBus) Subscribe(l EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit delivers the event to every listener.
func (b *EventBus) Emit(event models.Event) {
	b.mu.RLock()
	listeners := make([]EventListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}
