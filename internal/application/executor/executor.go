// Package executor runs integration commands through their handler while
// publishing the request and terminal events around each call.
package executor

import (
	"context"
	"time"

	"github.com/garyjia/integration-kit/internal/domain/event"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

// HandlerResolver resolves the handler bound to a command type
type HandlerResolver interface {
	HandlerFor(commandType integration.CommandType) (integration.Handler, error)
}

// Publisher delivers events synchronously to their listeners
type Publisher interface {
	Dispatch(ctx context.Context, evt event.Event) error
}

// Executor dispatches commands with instrumentation.
// It holds no per-call state and is safe for concurrent use.
type Executor struct {
	handlers HandlerResolver
	bus      Publisher
	logger   *zap.Logger
}

// New creates an executor
func New(handlers HandlerResolver, bus Publisher, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		handlers: handlers,
		bus:      bus,
		logger:   logger,
	}
}

// outcome captures one finished handler invocation
type outcome struct {
	value    any
	err      error
	duration time.Duration
	metadata integration.Metadata
}

// Execute runs cmd and returns the handler's value unchanged.
// A handler error is returned as is, after the failure event was published.
// Resolution failures return a *integration.HandlerNotFoundError and publish nothing.
func (e *Executor) Execute(ctx context.Context, cmd integration.Command) (any, error) {
	out, err := e.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return out.value, out.err
}

// ExecuteWithResult runs cmd and reports the handler outcome as a Result.
// The returned error is non-nil only when no handler is registered for cmd.
func (e *Executor) ExecuteWithResult(ctx context.Context, cmd integration.Command) (integration.Result, error) {
	out, err := e.run(ctx, cmd)
	if err != nil {
		return integration.Result{}, err
	}

	metadata := out.metadata.Merge(integration.Metadata{
		integration.MetadataDurationKey: event.Milliseconds(out.duration),
	})

	if out.err != nil {
		return integration.Failure(out.err.Error(), out.err, metadata), nil
	}
	return integration.Success(out.value, metadata), nil
}

// run performs resolve, request, invoke and report in strict sequence
func (e *Executor) run(ctx context.Context, cmd integration.Command) (*outcome, error) {
	handler, err := e.handlers.HandlerFor(cmd.CommandType())
	if err != nil {
		e.logger.Debug("No handler for command",
			zap.String("command_type", cmd.CommandType().String()),
			zap.String("integration_name", cmd.IntegrationName()))
		return nil, err
	}

	req := event.NewRequestEvent(cmd)
	e.publish(ctx, req)
	metadata := req.Metadata()

	start := time.Now()
	value, callErr := invoke(ctx, handler, cmd)
	duration := time.Since(start)

	if callErr != nil {
		e.publish(ctx, event.NewFailureEvent(req, metadata, callErr, duration))
	} else {
		e.publish(ctx, event.NewSuccessEvent(req, metadata, value, duration))
	}

	return &outcome{
		value:    value,
		err:      callErr,
		duration: duration,
		metadata: metadata,
	}, nil
}

// publish hands evt to the bus. Listener failures never change the dispatch outcome.
func (e *Executor) publish(ctx context.Context, evt event.Event) {
	if err := e.bus.Dispatch(ctx, evt); err != nil {
		e.logger.Warn("Event listener failed",
			zap.String("event_type", evt.Type().String()),
			zap.String("command_type", evt.CommandType().String()),
			zap.String("integration_name", evt.IntegrationName()),
			zap.Error(err))
	}
}

// invoke calls the handler, converting a panic into a *integration.PanicError
func invoke(ctx context.Context, handler integration.Handler, cmd integration.Command) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &integration.PanicError{CommandType: cmd.CommandType(), Value: r}
		}
	}()

	return handler.Handle(ctx, cmd)
}
