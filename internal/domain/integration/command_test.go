package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{ Text string }

func (echoCommand) CommandType() CommandType { return "test.echo" }
func (echoCommand) IntegrationName() string  { return "test" }

type otherCommand struct{}

func (otherCommand) CommandType() CommandType { return "test.other" }
func (otherCommand) IntegrationName() string  { return "test" }

func TestHandlerFunc(t *testing.T) {
	h := NewHandlerFunc("test.echo", func(ctx context.Context, cmd echoCommand) (any, error) {
		return cmd.Text, nil
	})

	assert.Equal(t, CommandType("test.echo"), h.Supports())

	t.Run("handles matching command", func(t *testing.T) {
		out, err := h.Handle(context.Background(), echoCommand{Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("rejects other commands", func(t *testing.T) {
		_, err := h.Handle(context.Background(), otherCommand{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnexpectedCommand)
		assert.Contains(t, err.Error(), "otherCommand")
	})
}

func TestDescriptor(t *testing.T) {
	d := NewIntegration("slack", "Slack incoming webhooks")
	assert.Equal(t, "slack", d.Name())
	assert.Equal(t, "Slack incoming webhooks", d.Description())
	assert.Equal(t, "slack.notify", CommandType("slack.notify").String())
}
