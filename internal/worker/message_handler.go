package worker

import (
	"context"
	"encoding/json"

	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

// Decoder rebuilds a command from its envelope payload
type Decoder interface {
	Decode(commandType integration.CommandType, payload json.RawMessage) (integration.Command, error)
}

// ResultExecutor runs a command and reports its outcome as a Result
type ResultExecutor interface {
	ExecuteWithResult(ctx context.Context, cmd integration.Command) (integration.Result, error)
}

// MessageHandler unwraps envelopes and executes their command.
//
// Errors raised while decoding or resolving the handler are returned so the
// consumer can retry. A failure Result is a terminal outcome that was
// already reported through the failure event; it is logged and not returned.
type MessageHandler struct {
	decoder  Decoder
	executor ResultExecutor
	logger   *zap.Logger
}

// NewMessageHandler creates a message handler
func NewMessageHandler(decoder Decoder, executor ResultExecutor, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{
		decoder:  decoder,
		executor: executor,
		logger:   logger,
	}
}

// Handle executes the command carried by env
func (h *MessageHandler) Handle(ctx context.Context, env *Envelope) error {
	cmd, err := h.decoder.Decode(env.CommandType, env.Payload)
	if err != nil {
		return err
	}

	result, err := h.executor.ExecuteWithResult(WithEnvelope(ctx, env), cmd)
	if err != nil {
		return err
	}

	if result.IsFailure() {
		h.logger.Info("Queued command finished with failure",
			zap.String("envelope_id", env.ID),
			zap.String("command_type", env.CommandType.String()),
			zap.String("error", result.ErrorMessage()),
			zap.Float64("duration_ms", result.DurationMs()))
		return nil
	}

	h.logger.Debug("Queued command succeeded",
		zap.String("envelope_id", env.ID),
		zap.String("command_type", env.CommandType.String()),
		zap.Float64("duration_ms", result.DurationMs()))
	return nil
}
