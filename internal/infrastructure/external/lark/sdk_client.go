package lark

import (
	"context"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/integration-kit/internal/application/port"
)

// Config holds Lark app credentials
type Config struct {
	AppID     string
	AppSecret string
}

// SDKClient sends IM messages with the Lark SDK
type SDKClient struct {
	client *lark.Client
	logger *zap.Logger
}

// NewSDKClient creates a new Lark SDK client
func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &SDKClient{
		client: client,
		logger: logger,
	}
}

// SendMessage sends a message to a user or group and returns its message id
func (c *SDKClient) SendMessage(ctx context.Context, msg port.LarkMessage) (string, error) {
	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(msg.ReceiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(msg.ReceiveID).
			MsgType(msg.MsgType).
			Content(msg.Content).
			Build()).
		Build()

	resp, err := c.client.Im.Message.Create(ctx, req)
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.String("receive_id", msg.ReceiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		c.logger.Error("API returned failure",
			zap.String("receive_id", msg.ReceiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	c.logger.Debug("Message sent",
		zap.String("message_id", messageID),
		zap.String("receive_id", msg.ReceiveID))

	return messageID, nil
}

// Verify interface compliance
var _ port.LarkMessageSender = (*SDKClient)(nil)
