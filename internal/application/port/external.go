package port

import (
	"context"
	"io"

	"github.com/garyjia/integration-kit/internal/domain/entity"
)

// LarkMessage is one IM message to deliver through Lark
type LarkMessage struct {
	ReceiveIDType string
	ReceiveID     string
	MsgType       string
	Content       string
}

// LarkMessageSender defines message sending operations
type LarkMessageSender interface {
	SendMessage(ctx context.Context, msg LarkMessage) (messageID string, err error)
}

// ChatRequest is a single-turn chat completion request
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the assistant reply of a chat completion
type ChatResponse struct {
	Content      string
	Model        string
	FinishReason string
	TotalTokens  int
}

// ChatCompleter defines chat completion operations
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// MessagePublisher publishes raw messages on a subject
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// CallExporter renders call records into a downloadable report
type CallExporter interface {
	Export(w io.Writer, records []*entity.CallRecord) error
	ContentType() string
	FileExtension() string
}
