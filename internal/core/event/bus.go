// Package event provides the in-process dispatcher that decouples
// state-changing operations from their downstream reactions. Dispatch is
// synchronous: Publish returns only after every matching handler ran.
package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/core/domain"
)

// Handler consumes one published event. A returned error (or a panic) is
// logged by the bus and never reaches the publisher.
type Handler func(ctx context.Context, e domain.Event) error

// Bus is an explicit instance, injected where needed; there is no
// package-level registry, so independent buses and test runs never
// interfere.
type Bus struct {
	mu     sync.RWMutex
	global []Handler
	byType map[string][]Handler
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		byType: make(map[string][]Handler),
		logger: logger,
	}
}

// Subscribe registers a handler for an exact event type. Handlers for the
// same type run in registration order.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[eventType] = append(b.byType[eventType], h)
}

// SubscribeAll registers a handler invoked for every published event,
// before any type-specific handler.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global = append(b.global, h)
}

// Publish fans the event out to all global handlers, then to all handlers
// registered for its exact type. Each handler is isolated: a failure is
// logged and the remaining handlers still run. Publish never reports
// handler failures to the caller.
func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.global)+len(b.byType[e.EventType()]))
	handlers = append(handlers, b.global...)
	handlers = append(handlers, b.byType[e.EventType()]...)
	b.mu.RUnlock()

	for i, h := range handlers {
		b.dispatch(ctx, h, e, i)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e domain.Event, index int) {
	defer func() {
		if r := recover(); r != nil {
			b.logFailure(e, index, fmt.Errorf("handler panic: %v", r))
		}
	}()
	if err := h(ctx, e); err != nil {
		b.logFailure(e, index, err)
	}
}

func (b *Bus) logFailure(e domain.Event, index int, err error) {
	b.logger.Error("event handler failed",
		zap.String("event_id", e.EventID()),
		zap.String("event_type", e.EventType()),
		zap.Time("occurred_at", e.OccurredAt()),
		zap.Int("handler_index", index),
		zap.Error(err),
	)
}

// Clear wipes all subscriptions. Tests that share a bus must call it
// between independent runs.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global = nil
	b.byType = make(map[string][]Handler)
}
