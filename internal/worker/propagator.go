package worker

import (
	"context"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/domain/event"
)

// MetadataEnvelopeID is the request metadata key holding the envelope id
const MetadataEnvelopeID = "envelope_id"

// MetadataPropagator copies the metadata of the envelope being processed
// into the request event, so it reaches the terminal event and the Result.
type MetadataPropagator struct{}

// NewMetadataPropagator creates the propagator
func NewMetadataPropagator() *MetadataPropagator {
	return &MetadataPropagator{}
}

// SubscriberName implements dispatcher.Subscriber
func (p *MetadataPropagator) SubscriberName() string {
	return "worker.metadata"
}

// SubscribedEvents implements dispatcher.Subscriber
func (p *MetadataPropagator) SubscribedEvents() map[event.Type]dispatcher.Handler {
	return map[event.Type]dispatcher.Handler{
		event.TypeRequest: p.OnRequest,
	}
}

// OnRequest adds the envelope id and metadata when ctx carries an envelope
func (p *MetadataPropagator) OnRequest(ctx context.Context, evt event.Event) error {
	req, ok := evt.(*event.RequestEvent)
	if !ok {
		return nil
	}

	env, ok := EnvelopeFromContext(ctx)
	if !ok {
		return nil
	}

	for k, v := range env.Metadata {
		req.AddMetadata(k, v)
	}
	req.AddMetadata(MetadataEnvelopeID, env.ID)
	return nil
}
