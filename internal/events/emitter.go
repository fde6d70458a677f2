package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrUnexpectedEvent is returned by typed handlers that receive the wrong event type.
var ErrUnexpectedEvent = errors.New("unexpected event type")

// InMemoryEventEmitter keeps handlers in memory, keyed by event name, and
// dispatches events to them synchronously.
type InMemoryEventEmitter struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make(map[string][]EventHandler),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// Subscribe registers handler for events named name.
func (e *InMemoryEventEmitter) Subscribe(name string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = append(e.handlers[name], handler)
	e.logger.Debug("registered event handler",
		"event_name", name,
		"handler_count", len(e.handlers[name]))
}

// EmitEvent publishes the event to every handler subscribed to its name.
// If any handler returns an error, the event will still be sent to all other handlers,
// and the first error encountered will be returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event Event) error {
	name := event.EventName()

	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers[name]))
	copy(handlers, e.handlers[name])
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		"event_name", name,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_name", name)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
