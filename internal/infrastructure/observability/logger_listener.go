// Package observability holds bus listeners that report integration calls.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/domain/event"
	"go.uber.org/zap"
)

// LoggerListener writes one structured record per integration event.
// The record timestamp comes from the logger encoder (key "timestamp");
// occurred_at carries the event creation time.
type LoggerListener struct {
	logger *zap.Logger
}

// NewLoggerListener creates a logging listener
func NewLoggerListener(logger *zap.Logger) *LoggerListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerListener{logger: logger}
}

// SubscriberName implements dispatcher.Subscriber
func (l *LoggerListener) SubscriberName() string {
	return "observability.logger"
}

// SubscribedEvents implements dispatcher.Subscriber
func (l *LoggerListener) SubscribedEvents() map[event.Type]dispatcher.Handler {
	return map[event.Type]dispatcher.Handler{
		event.TypeRequest: l.OnRequest,
		event.TypeSuccess: l.OnSuccess,
		event.TypeFailure: l.OnFailure,
	}
}

// OnRequest logs the request event
func (l *LoggerListener) OnRequest(ctx context.Context, evt event.Event) error {
	l.logger.Info(
		fmt.Sprintf("Integration request: %s::%s", evt.IntegrationName(), evt.CommandType()),
		baseFields(evt)...,
	)
	return nil
}

// OnSuccess logs the success event
func (l *LoggerListener) OnSuccess(ctx context.Context, evt event.Event) error {
	success, ok := evt.(*event.SuccessEvent)
	if !ok {
		return nil
	}

	fields := append(baseFields(evt), zap.Float64("duration_ms", success.DurationMs()))
	l.logger.Info(
		fmt.Sprintf("Integration success: %s::%s (duration: %.2f ms)",
			evt.IntegrationName(), evt.CommandType(), success.DurationMs()),
		fields...,
	)
	return nil
}

// OnFailure logs the failure event
func (l *LoggerListener) OnFailure(ctx context.Context, evt event.Event) error {
	failure, ok := evt.(*event.FailureEvent)
	if !ok {
		return nil
	}

	message := ""
	if failure.Err() != nil {
		message = failure.Err().Error()
	}

	fields := append(baseFields(evt),
		zap.Float64("duration_ms", failure.DurationMs()),
		zap.String("error", message),
		zap.String("exception_class", fmt.Sprintf("%T", failure.Err())),
	)
	l.logger.Error(
		fmt.Sprintf("Integration failure: %s::%s - %s (duration: %.2f ms)",
			evt.IntegrationName(), evt.CommandType(), message, failure.DurationMs()),
		fields...,
	)
	return nil
}

func baseFields(evt event.Event) []zap.Field {
	return []zap.Field{
		zap.String("occurred_at", evt.OccurredAt().Format(time.RFC3339Nano)),
		zap.String("integration_name", evt.IntegrationName()),
		zap.String("command_class", evt.CommandType().String()),
		zap.String("status", evt.Type().Status()),
		zap.Any("metadata", map[string]any(evt.Metadata())),
	}
}
