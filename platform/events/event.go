// Package events defines the in-process event bus used for decoupled
// communication between modules. Publishers emit domain events; interested
// modules subscribe handlers by event name.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName returns the stable name used for subscription routing.
	EventName() string
	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// Handler processes a published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to all subscribers asynchronously.
	// Handler failures are logged and never propagate to the publisher.
	Publish(ctx context.Context, event Event)
	// PublishSync delivers the event and waits for all handlers to finish.
	// The first handler error is returned; remaining handlers still run.
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers a handler for the given event name.
	Subscribe(eventName string, handler Handler)
}

// BaseEvent provides the OccurredAt implementation for concrete events.
type BaseEvent struct {
	Timestamp time.Time
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}
