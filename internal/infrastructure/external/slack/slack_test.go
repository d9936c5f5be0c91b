package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type otherCommand struct{}

func (otherCommand) CommandType() integration.CommandType { return "other.command" }
func (otherCommand) IntegrationName() string              { return "other" }

func TestNotifyHandler_Handle(t *testing.T) {
	var received map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := NewNotifyHandler(server.Client(), server.URL, nil)

	value, err := handler.Handle(context.Background(), NotifyCommand{Text: "hi"})
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]any{"text": "hi"}, received)
}

func TestNotifyHandler_Blocks(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
	}))
	defer server.Close()

	handler := NewNotifyHandler(server.Client(), server.URL, nil)
	cmd := &NotifyCommand{
		Text:   "deploy",
		Blocks: []map[string]any{{"type": "section"}},
	}

	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Len(t, received["blocks"], 1)
}

func TestNotifyHandler_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	handler := NewNotifyHandler(server.Client(), server.URL, nil)

	_, err := handler.Handle(context.Background(), NotifyCommand{Text: "hi"})

	var callErr *integration.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "slack", callErr.Integration)
	assert.Equal(t, "Slack webhook returned status code 500", callErr.Error())
	assert.Nil(t, callErr.Cause)
}

func TestNotifyHandler_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	handler := NewNotifyHandler(nil, url, nil)

	_, err := handler.Handle(context.Background(), NotifyCommand{Text: "hi"})

	var callErr *integration.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "slack", callErr.Integration)
	assert.Contains(t, callErr.Error(), "Transport error:")
	assert.NotNil(t, callErr.Cause)
}

func TestNotifyHandler_UnexpectedCommand(t *testing.T) {
	handler := NewNotifyHandler(nil, "http://localhost", nil)

	_, err := handler.Handle(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, integration.ErrUnexpectedCommand)
}

func TestCatalog(t *testing.T) {
	handler := NewNotifyHandler(nil, "http://localhost", nil)
	catalog := Catalog(handler)

	require.Len(t, catalog.Integrations, 1)
	assert.Equal(t, "slack", catalog.Integrations[0].Name())
	require.Len(t, catalog.Handlers, 1)
	assert.Equal(t, NotifyCommandType, catalog.Handlers[0].Supports())
}
