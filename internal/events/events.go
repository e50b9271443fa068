// Package events carries the global-time update from the state
// reconciler to whatever broadcasts it. A single server uses the
// in-process bus; multiple instances can relay through NATS so every
// gateway sees syncs handled elsewhere.
package events

import (
	"context"
	"sync"
)

// GlobalTimeUpdated fires after a state sync changed the global
// lifetime counter.
type GlobalTimeUpdated struct {
	Total int `json:"total"`
}

// Publisher emits global-time updates.
type Publisher interface {
	PublishGlobalTime(ctx context.Context, ev GlobalTimeUpdated) error
}

// Handler consumes global-time updates.
type Handler func(ev GlobalTimeUpdated)

// Bus is the in-process Publisher: synchronous fan-out to subscribed
// handlers. Payloads are a single int, so there is no need for
// buffering or backpressure here.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

var _ Publisher = (*Bus)(nil)

// NewBus creates an empty in-process bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future updates.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishGlobalTime delivers ev to every subscriber.
func (b *Bus) PublishGlobalTime(_ context.Context, ev GlobalTimeUpdated) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}
