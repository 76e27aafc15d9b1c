// Package eventbus provides the in-memory and Redis Streams
// implementations of the event bus contract.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sellerhub/payouts/pkg/domain/common"
	"github.com/sellerhub/payouts/pkg/eventbus"
)

// MemoryEventBus is a synchronous in-process implementation of the Bus
// contract. Handlers run on the emitter's goroutine, which keeps test
// assertions deterministic.
type MemoryEventBus struct {
	mu        sync.RWMutex
	nextID    int
	handlers  map[string]map[int]eventbus.HandlerFunc
	logger    *slog.Logger
	published []common.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(map[string]map[int]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register subscribes a handler for an event type and returns its
// unsubscribe hook.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) eventbus.UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]eventbus.HandlerFunc)
	}
	id := b.nextID
	b.nextID++
	b.handlers[eventType][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
}

// Emit dispatches the event to all handlers registered for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event common.Event) error {
	b.mu.RLock()
	handlers := make([]eventbus.HandlerFunc, 0, len(b.handlers[event.Type()]))
	for _, h := range b.handlers[event.Type()] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("event handler failed", "type", event.Type(), "error", err)
		}
	}
	return nil
}

// Published returns every emitted event. Test hook.
func (b *MemoryEventBus) Published() []common.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]common.Event, len(b.published))
	copy(out, b.published)
	return out
}

// ClearPublished resets the emitted-event record. Test hook.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
