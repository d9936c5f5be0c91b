package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

// Encoder turns a command into its JSON payload
type Encoder interface {
	Encode(cmd integration.Command) (json.RawMessage, error)
}

// Producer enqueues commands for asynchronous execution
type Producer struct {
	encoder Encoder
	queue   Queue
	logger  *zap.Logger
}

// NewProducer creates a producer writing to queue
func NewProducer(encoder Encoder, queue Queue, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		encoder: encoder,
		queue:   queue,
		logger:  logger,
	}
}

// Enqueue wraps cmd and metadata into an envelope and pushes it to the queue
func (p *Producer) Enqueue(ctx context.Context, cmd integration.Command, metadata integration.Metadata) (*Envelope, error) {
	payload, err := p.encoder.Encode(cmd)
	if err != nil {
		return nil, err
	}

	env := NewEnvelope(cmd.CommandType(), payload, metadata)
	if err := p.queue.Enqueue(ctx, env); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", cmd.CommandType(), err)
	}

	p.logger.Debug("Command enqueued",
		zap.String("envelope_id", env.ID),
		zap.String("command_type", cmd.CommandType().String()),
		zap.String("integration_name", cmd.IntegrationName()))

	return env, nil
}
