// Package messaging implements the in-process event bus that carries
// calendar and deliberation change events to the deadline recomputation
// handlers.
package messaging

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/campusops/assessment-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned when operating on a closed event bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// InMemoryEventBus is a synchronous in-memory implementation of
// shared.EventBus. Events are published after the producing transaction
// commits and handlers run to completion on the publishing goroutine, so a
// caller observes fully propagated deadlines when Publish returns.
//
// Handler errors are logged, never returned: propagation is best-effort and
// a failing handler must not fail the save that triggered it.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	logger      *slog.Logger
	metrics     *EventBusMetrics
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(logger *slog.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		logger:      logger.With("component", "event_bus"),
		metrics:     NewEventBusMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "event_type", eventType)

	return nil
}

// SubscribeAll registers a handler for all events. Used for audit-style
// listeners that observe every change event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.logger.Debug("subscribed global handler")

	return nil
}

// Publish sends an event to all subscribed handlers, synchronously and in
// registration order.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	b.metrics.RecordPublish(event.EventType())

	for _, handler := range handlers {
		if err := b.execute(event, handler); err != nil {
			b.logger.Error("handler error",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}

	return nil
}

// execute runs a single handler, converting a panic into an error so one
// misbehaving handler cannot take down the save path that published the
// event.
func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic",
				"event_type", event.EventType(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = errors.New("handler panicked")
		}
	}()

	start := time.Now()
	err = handler(event)
	b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)

	return err
}

// Close marks the bus closed. Further publishes and subscriptions fail with
// ErrEventBusClosed. Handlers run synchronously so there is nothing in
// flight to wait for.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the bus metrics.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}
