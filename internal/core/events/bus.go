package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

type Handler func(ctx context.Context, event Event) error

// EventBus dispatches in process, on the publisher's goroutine.
type EventBus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("subscribed", "event_type", eventType, "subscribers", len(eb.handlers[eventType]))
}

// Publish runs every handler for the event type. A failing handler does not stop
// the others; all failures are joined into the returned error.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.EventType()]...)
	eb.mu.RUnlock()

	log := eb.logger.With("event_type", event.EventType(), "event_id", event.EventID())
	if len(handlers) == 0 {
		log.DebugContext(ctx, "event dropped, no subscribers")
		return nil
	}

	var errs []error
	for i, handle := range handlers {
		if err := handle(ctx, event); err != nil {
			log.ErrorContext(ctx, "subscriber failed", "subscriber", i, "error", err)
			errs = append(errs, err)
		}
	}
	log.DebugContext(ctx, "event dispatched", "subscribers", len(handlers), "failed", len(errs))

	if len(errs) > 0 {
		return fmt.Errorf("event %s: %w", event.EventType(), errors.Join(errs...))
	}
	return nil
}
