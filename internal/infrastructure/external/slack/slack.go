// Package slack sends notifications through a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

const (
	// IntegrationName is the registry key of the Slack integration
	IntegrationName = "slack"

	// NotifyCommandType tags NotifyCommand
	NotifyCommandType integration.CommandType = "slack.notify"

	defaultTimeout = 10 * time.Second
)

// NotifyCommand posts a message to the configured channel
type NotifyCommand struct {
	Text   string           `json:"text"`
	Blocks []map[string]any `json:"blocks,omitempty"`
}

// CommandType returns the command tag
func (NotifyCommand) CommandType() integration.CommandType { return NotifyCommandType }

// IntegrationName returns "slack"
func (NotifyCommand) IntegrationName() string { return IntegrationName }

// NotifyHandler delivers NotifyCommand to an incoming webhook
type NotifyHandler struct {
	client     *http.Client
	webhookURL string
	logger     *zap.Logger
}

// NewNotifyHandler creates a handler posting to webhookURL.
// A nil client gets a default one with a 10s timeout.
func NewNotifyHandler(client *http.Client, webhookURL string, logger *zap.Logger) *NotifyHandler {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyHandler{
		client:     client,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// Supports returns NotifyCommandType
func (h *NotifyHandler) Supports() integration.CommandType {
	return NotifyCommandType
}

// Handle posts the notification. It has no business value and returns nil.
func (h *NotifyHandler) Handle(ctx context.Context, cmd integration.Command) (any, error) {
	notify, ok := cmd.(NotifyCommand)
	if !ok {
		if ptr, isPtr := cmd.(*NotifyCommand); isPtr && ptr != nil {
			notify = *ptr
		} else {
			return nil, fmt.Errorf("%w: expected %s, got %T", integration.ErrUnexpectedCommand, NotifyCommandType, cmd)
		}
	}

	return nil, h.Notify(ctx, notify)
}

// Notify posts cmd to the webhook
func (h *NotifyHandler) Notify(ctx context.Context, cmd NotifyCommand) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return integration.NewCallError(IntegrationName, fmt.Sprintf("Failed to encode payload: %s", err), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(body))
	if err != nil {
		return integration.NewCallError(IntegrationName, fmt.Sprintf("Transport error: %s", err), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return integration.NewCallError(IntegrationName, fmt.Sprintf("Transport error: %s", err), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("Slack webhook rejected notification", zap.Int("status_code", resp.StatusCode))
		return integration.NewCallError(IntegrationName, fmt.Sprintf("Slack webhook returned status code %d", resp.StatusCode), nil)
	}

	return nil
}

// Catalog returns the Slack integration and its handler for bootstrap
func Catalog(handler *NotifyHandler) bootstrap.Catalog {
	return bootstrap.Catalog{
		Integrations: []integration.Integration{
			integration.NewIntegration(IntegrationName, "Slack incoming webhook notifications"),
		},
		Handlers: []integration.Handler{handler},
	}
}
