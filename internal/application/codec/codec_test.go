package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyCommand struct {
	Text   string           `json:"text"`
	Blocks []map[string]any `json:"blocks,omitempty"`
}

func (notifyCommand) CommandType() integration.CommandType { return "slack.notify" }
func (notifyCommand) IntegrationName() string              { return "slack" }

type chargeCommand struct {
	Amount int `json:"amount"`
}

func (*chargeCommand) CommandType() integration.CommandType { return "stripe.charge" }
func (*chargeCommand) IntegrationName() string              { return "stripe" }

func TestRegistry_EncodeDecode(t *testing.T) {
	r := NewRegistry()
	Register[notifyCommand](r, "slack.notify")

	payload, err := r.Encode(notifyCommand{Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(payload))

	cmd, err := r.Decode("slack.notify", payload)
	require.NoError(t, err)
	assert.Equal(t, notifyCommand{Text: "hi"}, cmd)
}

func TestRegistry_PointerCommands(t *testing.T) {
	r := NewRegistry()
	Register[*chargeCommand](r, "stripe.charge")

	cmd, err := r.Decode("stripe.charge", json.RawMessage(`{"amount":42}`))
	require.NoError(t, err)

	charge, ok := cmd.(*chargeCommand)
	require.True(t, ok)
	assert.Equal(t, 42, charge.Amount)

	_, err = r.Decode("stripe.charge", nil)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestRegistry_DecodeErrors(t *testing.T) {
	r := NewRegistry()
	Register[notifyCommand](r, "slack.notify")
	Register[notifyCommand](r, "slack.alias")

	tests := []struct {
		name        string
		commandType integration.CommandType
		payload     string
		wantErr     error
	}{
		{name: "unknown type", commandType: "stripe.charge", payload: `{}`, wantErr: ErrUnknownCommandType},
		{name: "malformed json", commandType: "slack.notify", payload: `{"text":`, wantErr: ErrInvalidPayload},
		{name: "wrong field type", commandType: "slack.notify", payload: `{"text":1}`, wantErr: ErrInvalidPayload},
		{name: "tag mismatch", commandType: "slack.alias", payload: `{"text":"hi"}`, wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Decode(tt.commandType, json.RawMessage(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRegistry_EncodeUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Encode(notifyCommand{Text: "hi"})
	assert.True(t, errors.Is(err, ErrUnknownCommandType))
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry()
	Register[*chargeCommand](r, "stripe.charge")
	Register[notifyCommand](r, "slack.notify")

	assert.True(t, r.Has("slack.notify"))
	assert.False(t, r.Has("lark.send_message"))
	assert.Equal(t, []integration.CommandType{"slack.notify", "stripe.charge"}, r.Types())
}
