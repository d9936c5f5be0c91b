// Package nats forwards integration events to a NATS subject tree.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/integration-kit/internal/application/dispatcher"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/event"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	natsgo "github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is used when no prefix is configured
const DefaultSubjectPrefix = "integrations"

// Message is the JSON body published for each event
type Message struct {
	Type            string               `json:"type"`
	Status          string               `json:"status"`
	IntegrationName string               `json:"integration_name"`
	CommandType     string               `json:"command_type"`
	OccurredAt      time.Time            `json:"occurred_at"`
	DurationMs      *float64             `json:"duration_ms,omitempty"`
	Error           string               `json:"error,omitempty"`
	Metadata        integration.Metadata `json:"metadata"`
}

// EventForwarder publishes every integration event on
// "<prefix>.<integration>.<status>"
type EventForwarder struct {
	publisher port.MessagePublisher
	prefix    string
	logger    *zap.Logger
}

// NewEventForwarder creates a forwarder; *natsgo.Conn satisfies port.MessagePublisher
func NewEventForwarder(publisher port.MessagePublisher, prefix string, logger *zap.Logger) *EventForwarder {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{
		publisher: publisher,
		prefix:    strings.TrimSuffix(prefix, "."),
		logger:    logger,
	}
}

// Connect opens a NATS connection with reconnect handling
func Connect(url, name string, logger *zap.Logger) (*natsgo.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.Timeout(10*time.Second),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS", zap.String("url", url))
	return nc, nil
}

// SubscriberName implements dispatcher.Subscriber
func (f *EventForwarder) SubscriberName() string {
	return "messaging.nats"
}

// SubscribedEvents implements dispatcher.Subscriber
func (f *EventForwarder) SubscribedEvents() map[event.Type]dispatcher.Handler {
	return map[event.Type]dispatcher.Handler{
		event.TypeRequest: f.Forward,
		event.TypeSuccess: f.Forward,
		event.TypeFailure: f.Forward,
	}
}

// Forward publishes evt
func (f *EventForwarder) Forward(ctx context.Context, evt event.Event) error {
	msg := NewMessage(evt)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := f.Subject(evt)
	if err := f.publisher.Publish(subject, data); err != nil {
		f.logger.Warn("Failed to forward event",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// Subject returns the subject evt is published on
func (f *EventForwarder) Subject(evt event.Event) string {
	return fmt.Sprintf("%s.%s.%s", f.prefix, subjectToken(evt.IntegrationName()), evt.Type().Status())
}

// NewMessage converts evt into its published form
func NewMessage(evt event.Event) Message {
	msg := Message{
		Type:            evt.Type().String(),
		Status:          evt.Type().Status(),
		IntegrationName: evt.IntegrationName(),
		CommandType:     evt.CommandType().String(),
		OccurredAt:      evt.OccurredAt().UTC(),
		Metadata:        evt.Metadata(),
	}

	switch e := evt.(type) {
	case *event.SuccessEvent:
		d := e.DurationMs()
		msg.DurationMs = &d
	case *event.FailureEvent:
		d := e.DurationMs()
		msg.DurationMs = &d
		if e.Err() != nil {
			msg.Error = e.Err().Error()
		}
	}

	return msg
}

// subjectToken makes name safe for use as a single subject token
func subjectToken(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, name)
}
