// Package listener persists terminal integration events to the call log.
package listener

import (
	"context"
	"fmt"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/entity"
	"github.com/garyjia/integration-kit/internal/domain/event"
	"go.uber.org/zap"
)

// RequestIDKey is the metadata key copied into CallRecord.RequestID
const RequestIDKey = "request_id"

// CallRecorder writes one call record per dispatch.
// Write failures are returned to the bus and never change the call outcome.
type CallRecorder struct {
	repo   port.CallRepository
	logger *zap.Logger
}

// NewCallRecorder creates a call recorder
func NewCallRecorder(repo port.CallRepository, logger *zap.Logger) *CallRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallRecorder{
		repo:   repo,
		logger: logger,
	}
}

// SubscriberName implements dispatcher.Subscriber
func (r *CallRecorder) SubscriberName() string {
	return "persistence.call_recorder"
}

// SubscribedEvents implements dispatcher.Subscriber
func (r *CallRecorder) SubscribedEvents() map[event.Type]dispatcher.Handler {
	return map[event.Type]dispatcher.Handler{
		event.TypeSuccess: r.Record,
		event.TypeFailure: r.Record,
	}
}

// Record persists a success or failure event
func (r *CallRecorder) Record(ctx context.Context, evt event.Event) error {
	record := &entity.CallRecord{
		CommandType:     evt.CommandType(),
		IntegrationName: evt.IntegrationName(),
		Metadata:        evt.Metadata(),
		CreatedAt:       evt.OccurredAt(),
	}
	record.RequestID = record.Metadata.String(RequestIDKey)

	switch e := evt.(type) {
	case *event.SuccessEvent:
		record.Status = entity.CallStatusSuccess
		record.DurationMs = e.DurationMs()
	case *event.FailureEvent:
		record.Status = entity.CallStatusFailure
		record.DurationMs = e.DurationMs()
		if e.Err() != nil {
			record.ErrorMessage = e.Err().Error()
			record.ErrorClass = fmt.Sprintf("%T", e.Err())
		}
	default:
		return nil
	}

	if err := r.repo.Create(ctx, record); err != nil {
		r.logger.Warn("Failed to record integration call",
			zap.String("command_type", record.CommandType.String()),
			zap.String("status", record.Status),
			zap.Error(err))
		return err
	}

	return nil
}
