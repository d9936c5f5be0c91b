package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClient_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "pong"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer server.Close()

	client := NewChatClient("sk-test", server.URL+"/v1", nil)

	resp, err := client.Complete(context.Background(), port.ChatRequest{
		Model:  "gpt-4o-mini",
		System: "be brief",
		Prompt: "ping",
	})
	require.NoError(t, err)
	assert.Equal(t, &port.ChatResponse{Content: "pong", Model: "gpt-4o-mini", FinishReason: "stop", TotalTokens: 4}, resp)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestChatClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	_, err := NewChatClient("sk-test", server.URL+"/v1", nil).Complete(context.Background(), port.ChatRequest{Prompt: "ping"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := NewChatClient("sk-bad", server.URL+"/v1", nil).Complete(context.Background(), port.ChatRequest{Prompt: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API call failed")
}
