package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/domain/event"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	slackNotifyType  integration.CommandType = "slack.notify"
	stripeChargeType integration.CommandType = "stripe.charge"
)

type slackNotify struct {
	Text string
}

func (slackNotify) CommandType() integration.CommandType { return slackNotifyType }
func (slackNotify) IntegrationName() string              { return "slack" }

type stripeCharge struct {
	Amount int
}

func (stripeCharge) CommandType() integration.CommandType { return stripeChargeType }
func (stripeCharge) IntegrationName() string              { return "stripe" }

type payload struct {
	ID string
}

// recorder captures every event published on the bus, in order
type recorder struct {
	mu     sync.Mutex
	events []event.Event
	trace  []string
}

func (r *recorder) SubscriberName() string { return "recorder" }

func (r *recorder) SubscribedEvents() map[event.Type]dispatcher.Handler {
	record := func(ctx context.Context, evt event.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, evt)
		r.trace = append(r.trace, evt.Type().Status())
		return nil
	}
	return map[event.Type]dispatcher.Handler{
		event.TypeRequest: record,
		event.TypeSuccess: record,
		event.TypeFailure: record,
	}
}

func (r *recorder) mark(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, step)
}

func (r *recorder) snapshot() ([]event.Event, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...), append([]string(nil), r.trace...)
}

type fixture struct {
	handlers *registry.HandlerRegistry
	bus      dispatcher.Dispatcher
	rec      *recorder
	exec     *Executor
}

func newFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()

	handlers := registry.NewHandlerRegistry()
	bus := dispatcher.NewDispatcher()
	rec := &recorder{}
	bus.SubscribeAll(rec)

	return &fixture{
		handlers: handlers,
		bus:      bus,
		rec:      rec,
		exec:     New(handlers, bus, logger),
	}
}

func (f *fixture) register(commandType integration.CommandType, fn func(ctx context.Context, cmd integration.Command) (any, error)) {
	f.handlers.Register(commandType, &funcHandler{commandType: commandType, fn: fn})
}

type funcHandler struct {
	commandType integration.CommandType
	fn          func(ctx context.Context, cmd integration.Command) (any, error)
}

func (h *funcHandler) Supports() integration.CommandType { return h.commandType }

func (h *funcHandler) Handle(ctx context.Context, cmd integration.Command) (any, error) {
	return h.fn(ctx, cmd)
}

func TestExecute_ReturnsHandlerValueUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	want := &payload{ID: "msg-1"}
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return want, nil
	})

	got, err := f.exec.Execute(context.Background(), slackNotify{Text: "hi"})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestExecute_HandlerNotFoundPublishesNothing(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.exec.Execute(context.Background(), stripeCharge{Amount: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, integration.ErrHandlerNotFound))

	result, err := f.exec.ExecuteWithResult(context.Background(), stripeCharge{Amount: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, integration.ErrHandlerNotFound))
	assert.False(t, result.IsSuccess())

	events, _ := f.rec.snapshot()
	assert.Empty(t, events)
}

func TestExecute_EventOrdering(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		terminal string
	}{
		{name: "success", terminal: "success"},
		{name: "failure", err: errors.New("boom"), terminal: "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, withResult := range []bool{false, true} {
				f := newFixture(t, nil)
				f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
					f.rec.mark("handler")
					return nil, tt.err
				})

				if withResult {
					_, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
					require.NoError(t, err)
				} else {
					_, _ = f.exec.Execute(context.Background(), slackNotify{})
				}

				events, trace := f.rec.snapshot()
				require.Len(t, events, 2)
				assert.Equal(t, []string{"request", "handler", tt.terminal}, trace)
			}
		})
	}
}

func TestExecute_SlackScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return nil, nil
	})

	got, err := f.exec.Execute(context.Background(), slackNotify{Text: "hi"})
	require.NoError(t, err)
	assert.Nil(t, got)

	events, _ := f.rec.snapshot()
	require.Len(t, events, 2)

	req, ok := events[0].(*event.RequestEvent)
	require.True(t, ok)
	assert.Equal(t, "slack", req.IntegrationName())
	assert.Equal(t, slackNotifyType, req.CommandType())
	assert.Equal(t, slackNotify{Text: "hi"}, req.Command())

	success, ok := events[1].(*event.SuccessEvent)
	require.True(t, ok)
	assert.Equal(t, "slack", success.IntegrationName())
	assert.Nil(t, success.Result())
	assert.GreaterOrEqual(t, success.DurationMs(), 0.0)
}

func TestExecute_BoomScenario(t *testing.T) {
	boom := errors.New("boom")
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return nil, boom
	})

	result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.True(t, result.IsFailure())
	assert.Equal(t, "boom", result.ErrorMessage())
	assert.True(t, result.Cause() == boom, "cause must be the original error")
	assert.Nil(t, result.Data())

	_, err = f.exec.Execute(context.Background(), slackNotify{})
	assert.True(t, err == boom, "execute must return the original error")

	events, _ := f.rec.snapshot()
	require.Len(t, events, 4)
	failure, ok := events[3].(*event.FailureEvent)
	require.True(t, ok)
	assert.True(t, failure.Err() == boom)
}

func TestExecute_CallErrorPassesThrough(t *testing.T) {
	callErr := integration.NewCallError("slack", "Slack webhook returned status code 500", nil)
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return nil, callErr
	})

	_, err := f.exec.Execute(context.Background(), slackNotify{})
	var got *integration.CallError
	require.True(t, errors.As(err, &got))
	assert.Same(t, callErr, got)

	result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.Equal(t, "Slack webhook returned status code 500", result.ErrorMessage())
}

func TestExecuteWithResult_ResultInvariant(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(ctx context.Context, cmd integration.Command) (any, error)
		success bool
	}{
		{
			name:    "value",
			fn:      func(ctx context.Context, cmd integration.Command) (any, error) { return "ok", nil },
			success: true,
		},
		{
			name:    "nil value",
			fn:      func(ctx context.Context, cmd integration.Command) (any, error) { return nil, nil },
			success: true,
		},
		{
			name: "error",
			fn:   func(ctx context.Context, cmd integration.Command) (any, error) { return "partial", errors.New("failed") },
		},
		{
			name: "panic",
			fn:   func(ctx context.Context, cmd integration.Command) (any, error) { panic("kaboom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.register(slackNotifyType, tt.fn)

			result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
			require.NoError(t, err)
			assert.NotEqual(t, result.IsSuccess(), result.IsFailure())
			assert.Equal(t, tt.success, result.IsSuccess())
			assert.GreaterOrEqual(t, result.DurationMs(), 0.0)

			if !tt.success {
				assert.Nil(t, result.Data())
				assert.NotEmpty(t, result.ErrorMessage())
			}
		})
	}
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		panic("kaboom")
	})

	value, err := f.exec.Execute(context.Background(), slackNotify{})
	assert.Nil(t, value)
	require.Error(t, err)
	assert.True(t, errors.Is(err, integration.ErrHandlerPanic))

	var panicErr *integration.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.Equal(t, slackNotifyType, panicErr.CommandType)

	_, trace := f.rec.snapshot()
	assert.Equal(t, []string{"request", "failure"}, trace)
}

func TestExecute_DurationTracksSlowHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		time.Sleep(100 * time.Millisecond)
		return nil, nil
	})

	result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.DurationMs(), 95.0)
	assert.GreaterOrEqual(t, result.Metadata().Float(integration.MetadataDurationKey), 95.0)

	events, _ := f.rec.snapshot()
	require.Len(t, events, 2)
	success := events[1].(*event.SuccessEvent)
	assert.GreaterOrEqual(t, success.DurationMs(), 95.0)
}

func TestExecute_RequestMetadataFlowsToTerminalEventAndResult(t *testing.T) {
	for _, fail := range []bool{false, true} {
		f := newFixture(t, nil)
		f.bus.Subscribe(event.TypeRequest, func(ctx context.Context, evt event.Event) error {
			evt.(*event.RequestEvent).AddMetadata("trace_id", "trace-42")
			return nil
		})
		f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
			if fail {
				return nil, errors.New("nope")
			}
			return "ok", nil
		})

		result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
		require.NoError(t, err)
		assert.Equal(t, "trace-42", result.Metadata().String("trace_id"))
		assert.Contains(t, result.Metadata(), integration.MetadataDurationKey)

		events, _ := f.rec.snapshot()
		require.Len(t, events, 2)
		assert.Equal(t, "trace-42", events[1].Metadata().String("trace_id"))
		assert.NotContains(t, events[1].Metadata(), integration.MetadataDurationKey)
	}
}

func TestExecute_RequestMetadataStartsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	var seen integration.Metadata
	f.bus.Subscribe(event.TypeRequest, func(ctx context.Context, evt event.Event) error {
		seen = evt.Metadata()
		return nil
	})
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return nil, nil
	})

	_, err := f.exec.Execute(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.NotNil(t, seen)
	assert.Empty(t, seen)
}

func TestExecute_MetadataFrozenWhenRequestDispatchReturns(t *testing.T) {
	for _, fail := range []bool{false, true} {
		f := newFixture(t, nil)

		var kept *event.RequestEvent
		f.bus.Subscribe(event.TypeRequest, func(ctx context.Context, evt event.Event) error {
			kept = evt.(*event.RequestEvent)
			kept.AddMetadata("trace_id", "trace-7")
			return nil
		})
		late := func(ctx context.Context, evt event.Event) error {
			kept.AddMetadata("late", "from-terminal")
			return nil
		}
		f.bus.Subscribe(event.TypeSuccess, late)
		f.bus.Subscribe(event.TypeFailure, late)

		f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
			kept.AddMetadata("during", "from-handler")
			if fail {
				return nil, errors.New("nope")
			}
			return "ok", nil
		})

		result, err := f.exec.ExecuteWithResult(context.Background(), slackNotify{})
		require.NoError(t, err)

		events, _ := f.rec.snapshot()
		require.Len(t, events, 2)
		assert.Equal(t, integration.Metadata{"trace_id": "trace-7"}, events[1].Metadata())

		md := result.Metadata()
		assert.Equal(t, "trace-7", md.String("trace_id"))
		assert.NotContains(t, md, "during")
		assert.NotContains(t, md, "late")
		assert.Len(t, md, 2)

		// the request itself still accepted the writes
		assert.Equal(t, "from-terminal", kept.Metadata().String("late"))
	}
}

func TestExecute_TerminalEventHasOwnTimestamp(t *testing.T) {
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	})

	_, err := f.exec.Execute(context.Background(), slackNotify{})
	require.NoError(t, err)

	events, _ := f.rec.snapshot()
	require.Len(t, events, 2)
	assert.True(t, events[1].OccurredAt().After(events[0].OccurredAt()))
}

func TestExecute_ListenerFailureDoesNotChangeOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, zap.New(core))
	f.bus.Subscribe(event.TypeRequest, func(ctx context.Context, evt event.Event) error {
		return errors.New("listener down")
	})
	f.bus.Subscribe(event.TypeSuccess, func(ctx context.Context, evt event.Event) error {
		panic("listener panic")
	})
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return "ok", nil
	})

	got, err := f.exec.Execute(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, trace := f.rec.snapshot()
	assert.Equal(t, []string{"request", "success"}, trace)
	assert.Equal(t, 2, logs.FilterMessage("Event listener failed").Len())
}

func TestExecute_NestedDispatchKeepsPairs(t *testing.T) {
	f := newFixture(t, nil)
	f.register(stripeChargeType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return "charged", nil
	})
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return f.exec.Execute(ctx, stripeCharge{Amount: 5})
	})

	got, err := f.exec.Execute(context.Background(), slackNotify{})
	require.NoError(t, err)
	assert.Equal(t, "charged", got)

	events, _ := f.rec.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, "slack", events[0].IntegrationName())
	assert.Equal(t, event.TypeRequest, events[0].Type())
	assert.Equal(t, "stripe", events[1].IntegrationName())
	assert.Equal(t, event.TypeRequest, events[1].Type())
	assert.Equal(t, "stripe", events[2].IntegrationName())
	assert.Equal(t, event.TypeSuccess, events[2].Type())
	assert.Equal(t, "slack", events[3].IntegrationName())
	assert.Equal(t, event.TypeSuccess, events[3].Type())
}

func TestExecute_ConcurrentDispatches(t *testing.T) {
	f := newFixture(t, nil)
	f.register(slackNotifyType, func(ctx context.Context, cmd integration.Command) (any, error) {
		return cmd.(slackNotify).Text, nil
	})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.exec.ExecuteWithResult(context.Background(), slackNotify{Text: "x"})
		}()
	}
	wg.Wait()

	events, _ := f.rec.snapshot()
	require.Len(t, events, 2*n)

	requests, successes := 0, 0
	for _, evt := range events {
		switch evt.Type() {
		case event.TypeRequest:
			requests++
		case event.TypeSuccess:
			successes++
		}
	}
	assert.Equal(t, n, requests)
	assert.Equal(t, n, successes)
}
