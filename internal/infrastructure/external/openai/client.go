package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/integration-kit/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when the API answers without choices
var ErrEmptyResponse = errors.New("no response from OpenAI")

// ChatClient implements port.ChatCompleter using go-openai
type ChatClient struct {
	client *openai.Client
	logger *zap.Logger
}

// NewChatClient creates a new chat client. An empty baseURL uses the public API.
func NewChatClient(apiKey, baseURL string, logger *zap.Logger) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Complete sends a single-turn chat completion
func (c *ChatClient) Complete(ctx context.Context, req port.ChatRequest) (*port.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.String("model", req.Model), zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	c.logger.Debug("Chat completion received",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return &port.ChatResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// Verify interface compliance
var _ port.ChatCompleter = (*ChatClient)(nil)
