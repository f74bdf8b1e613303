package events

import (
	"collectflow_backend/platform/events"
	"collectflow_backend/platform/logger"
)

// Bus re-exports the platform bus so modules only import internal/events.
type Bus = events.Bus

// Handler re-exports the platform handler interface.
type Handler = events.Handler

// HandlerFunc re-exports the platform handler adapter.
type HandlerFunc = events.HandlerFunc

// Event re-exports the platform event interface.
type Event = events.Event

// NewBus creates the application's in-memory event bus.
func NewBus(log *logger.Logger) *events.InMemoryBus {
	return events.NewInMemoryBus(log)
}

// NewBase stamps a fresh event payload.
func NewBase() events.BaseEvent {
	return events.NewBaseEvent()
}
