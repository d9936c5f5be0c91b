package dispatcher

import (
	"context"

	"github.com/garyjia/integration-kit/internal/domain/event"
)

// Handler processes integration events
type Handler func(ctx context.Context, evt event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// Subscriber registers a group of handlers at once, keyed by event type
type Subscriber interface {
	// SubscriberName is used as a prefix for the registered handler names
	SubscriberName() string

	// SubscribedEvents returns the handler to register per event type
	SubscribedEvents() map[event.Type]Handler
}
