// Package worker carries commands across a queue and executes them in
// background consumers.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/google/uuid"
)

// Envelope is the transportable form of one command
type Envelope struct {
	ID          string                  `json:"id"`
	CommandType integration.CommandType `json:"command_type"`
	Payload     json.RawMessage         `json:"payload"`
	Metadata    integration.Metadata    `json:"metadata,omitempty"`
	Attempts    int                     `json:"attempts"`
	EnqueuedAt  time.Time               `json:"enqueued_at"`
}

// NewEnvelope wraps an encoded command with a fresh id
func NewEnvelope(commandType integration.CommandType, payload json.RawMessage, metadata integration.Metadata) *Envelope {
	return &Envelope{
		ID:          uuid.NewString(),
		CommandType: commandType,
		Payload:     payload,
		Metadata:    metadata.Clone(),
		EnqueuedAt:  time.Now().UTC(),
	}
}

// Retry returns a copy of the envelope with the attempt counter incremented
func (e *Envelope) Retry() *Envelope {
	cp := *e
	cp.Attempts++
	cp.Metadata = e.Metadata.Clone()
	return &cp
}

type envelopeKey struct{}

// WithEnvelope returns a context carrying env
func WithEnvelope(ctx context.Context, env *Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey{}, env)
}

// EnvelopeFromContext returns the envelope being processed, if any
func EnvelopeFromContext(ctx context.Context) (*Envelope, bool) {
	env, ok := ctx.Value(envelopeKey{}).(*Envelope)
	return env, ok && env != nil
}
