// Package lark delivers IM messages through the Lark open platform.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

const (
	// IntegrationName is the registry key of the Lark integration
	IntegrationName = "lark"

	// SendMessageCommandType tags SendMessageCommand
	SendMessageCommandType integration.CommandType = "lark.send_message"

	// ReceiveIDTypeOpenID addresses a user by open_id
	ReceiveIDTypeOpenID = "open_id"

	// MsgTypeText is a plain text message
	MsgTypeText = "text"
)

// SendMessageCommand sends one IM message
type SendMessageCommand struct {
	ReceiveIDType string `json:"receive_id_type"`
	ReceiveID     string `json:"receive_id"`
	MsgType       string `json:"msg_type"`
	Content       string `json:"content"`
}

// TextMessage builds a text message command for an open_id
func TextMessage(openID, text string) (SendMessageCommand, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return SendMessageCommand{}, fmt.Errorf("failed to marshal text content: %w", err)
	}
	return SendMessageCommand{
		ReceiveIDType: ReceiveIDTypeOpenID,
		ReceiveID:     openID,
		MsgType:       MsgTypeText,
		Content:       string(content),
	}, nil
}

// CommandType returns the command tag
func (SendMessageCommand) CommandType() integration.CommandType { return SendMessageCommandType }

// IntegrationName returns "lark"
func (SendMessageCommand) IntegrationName() string { return IntegrationName }

// Messenger handles SendMessageCommand
type Messenger struct {
	sender port.LarkMessageSender
	logger *zap.Logger
}

// NewMessenger creates a new Lark message handler
func NewMessenger(sender port.LarkMessageSender, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{
		sender: sender,
		logger: logger,
	}
}

// Supports returns SendMessageCommandType
func (m *Messenger) Supports() integration.CommandType {
	return SendMessageCommandType
}

// Handle sends the message and returns the Lark message id
func (m *Messenger) Handle(ctx context.Context, cmd integration.Command) (any, error) {
	msg, ok := cmd.(SendMessageCommand)
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %T", integration.ErrUnexpectedCommand, SendMessageCommandType, cmd)
	}

	if msg.ReceiveID == "" {
		return nil, integration.NewCallError(IntegrationName, "receive_id cannot be empty", nil)
	}
	if msg.Content == "" {
		return nil, integration.NewCallError(IntegrationName, "content cannot be empty", nil)
	}
	if msg.ReceiveIDType == "" {
		msg.ReceiveIDType = ReceiveIDTypeOpenID
	}
	if msg.MsgType == "" {
		msg.MsgType = MsgTypeText
	}

	messageID, err := m.sender.SendMessage(ctx, port.LarkMessage{
		ReceiveIDType: msg.ReceiveIDType,
		ReceiveID:     msg.ReceiveID,
		MsgType:       msg.MsgType,
		Content:       msg.Content,
	})
	if err != nil {
		return nil, integration.NewCallError(IntegrationName, fmt.Sprintf("Lark send failed: %s", err), err)
	}

	return messageID, nil
}

// Catalog returns the Lark integration and its handler for bootstrap
func Catalog(messenger *Messenger) bootstrap.Catalog {
	return bootstrap.Catalog{
		Integrations: []integration.Integration{
			integration.NewIntegration(IntegrationName, "Lark IM messages"),
		},
		Handlers: []integration.Handler{messenger},
	}
}
