// Package openai runs chat completions against the OpenAI API.
package openai

import (
	"context"
	"fmt"

	"github.com/garyjia/integration-kit/internal/application/bootstrap"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"go.uber.org/zap"
)

const (
	// IntegrationName is the registry key of the OpenAI integration
	IntegrationName = "openai"

	// ChatCompletionCommandType tags ChatCompletionCommand
	ChatCompletionCommandType integration.CommandType = "openai.chat_completion"

	// DefaultModel is used when neither the command nor the prompt config names one
	DefaultModel = "gpt-4o-mini"
)

// ChatCompletionCommand asks the model for one reply.
// Zero fields fall back to the handler's prompt defaults.
type ChatCompletionCommand struct {
	Model       string  `json:"model,omitempty"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CommandType returns the command tag
func (ChatCompletionCommand) CommandType() integration.CommandType { return ChatCompletionCommandType }

// IntegrationName returns "openai"
func (ChatCompletionCommand) IntegrationName() string { return IntegrationName }

// CompletionHandler handles ChatCompletionCommand and returns the assistant content
type CompletionHandler struct {
	completer port.ChatCompleter
	defaults  ChatPrompt
	logger    *zap.Logger
}

// NewCompletionHandler creates a handler; prompts may be nil
func NewCompletionHandler(completer port.ChatCompleter, prompts *PromptConfig, logger *zap.Logger) *CompletionHandler {
	var defaults ChatPrompt
	if prompts != nil {
		defaults = prompts.Chat
	}
	if defaults.Model == "" {
		defaults.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionHandler{
		completer: completer,
		defaults:  defaults,
		logger:    logger,
	}
}

// Supports returns ChatCompletionCommandType
func (h *CompletionHandler) Supports() integration.CommandType {
	return ChatCompletionCommandType
}

// Handle runs the completion
func (h *CompletionHandler) Handle(ctx context.Context, cmd integration.Command) (any, error) {
	chat, ok := cmd.(ChatCompletionCommand)
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %T", integration.ErrUnexpectedCommand, ChatCompletionCommandType, cmd)
	}
	if chat.Prompt == "" {
		return nil, integration.NewCallError(IntegrationName, "prompt cannot be empty", nil)
	}

	req, err := h.buildRequest(chat)
	if err != nil {
		return nil, integration.NewCallError(IntegrationName, fmt.Sprintf("Failed to build prompt: %s", err), err)
	}

	resp, err := h.completer.Complete(ctx, req)
	if err != nil {
		return nil, integration.NewCallError(IntegrationName, err.Error(), err)
	}

	h.logger.Debug("Chat completion handled",
		zap.String("model", resp.Model),
		zap.String("finish_reason", resp.FinishReason))

	return resp.Content, nil
}

func (h *CompletionHandler) buildRequest(cmd ChatCompletionCommand) (port.ChatRequest, error) {
	req := port.ChatRequest{
		Model:       firstNonEmpty(cmd.Model, h.defaults.Model),
		System:      firstNonEmpty(cmd.System, h.defaults.System),
		Prompt:      cmd.Prompt,
		Temperature: cmd.Temperature,
		MaxTokens:   cmd.MaxTokens,
	}
	if req.Temperature == 0 {
		req.Temperature = h.defaults.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = h.defaults.MaxTokens
	}

	if h.defaults.UserTemplate != "" {
		prompt, err := renderTemplate(h.defaults.UserTemplate, cmd)
		if err != nil {
			return port.ChatRequest{}, err
		}
		req.Prompt = prompt
	}

	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Catalog returns the OpenAI integration and its handler for bootstrap
func Catalog(handler *CompletionHandler) bootstrap.Catalog {
	return bootstrap.Catalog{
		Integrations: []integration.Integration{
			integration.NewIntegration(IntegrationName, "OpenAI chat completions"),
		},
		Handlers: []integration.Handler{handler},
	}
}
