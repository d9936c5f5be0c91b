package observability

import (
	"context"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/domain/event"
	"github.com/google/uuid"
)

// MetadataRequestID is the metadata key holding the per-dispatch id
const MetadataRequestID = "request_id"

// RequestIDListener tags each dispatch with a unique id.
// An id already present in the metadata is kept.
type RequestIDListener struct {
	newID func() string
}

// NewRequestIDListener creates a listener generating uuid v4 ids
func NewRequestIDListener() *RequestIDListener {
	return &RequestIDListener{newID: uuid.NewString}
}

// SubscriberName implements dispatcher.Subscriber
func (l *RequestIDListener) SubscriberName() string {
	return "observability.request_id"
}

// SubscribedEvents implements dispatcher.Subscriber
func (l *RequestIDListener) SubscribedEvents() map[event.Type]dispatcher.Handler {
	return map[event.Type]dispatcher.Handler{
		event.TypeRequest: l.OnRequest,
	}
}

// OnRequest adds request_id to the request metadata
func (l *RequestIDListener) OnRequest(ctx context.Context, evt event.Event) error {
	req, ok := evt.(*event.RequestEvent)
	if !ok {
		return nil
	}
	if req.Metadata().String(MetadataRequestID) != "" {
		return nil
	}
	req.AddMetadata(MetadataRequestID, l.newID())
	return nil
}
