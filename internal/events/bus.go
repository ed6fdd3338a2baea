package events

import "sync"

// Bus is an in-process publisher that fans events out to subscribed handlers.
// Used for single-binary deployments and in tests; the NATS publisher
// replaces it when an external notification service is configured.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(event any)
}

// NewBus creates an empty in-process event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]func(event any)),
	}
}

// Subscribe registers a handler for a subject. Handlers run synchronously in
// publish order on the publishing goroutine.
func (b *Bus) Subscribe(subject string, handler func(event any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], handler)
}

// Publish delivers the event to every handler subscribed to the subject.
func (b *Bus) Publish(subject string, event any) error {
	b.mu.RLock()
	handlers := b.handlers[subject]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}
