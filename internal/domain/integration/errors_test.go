package integration

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerNotFoundError(t *testing.T) {
	err := &HandlerNotFoundError{CommandType: "slack.notify"}

	assert.ErrorIs(t, err, ErrHandlerNotFound)
	assert.Contains(t, err.Error(), "slack.notify")

	wrapped := fmt.Errorf("dispatch: %w", err)
	var target *HandlerNotFoundError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, CommandType("slack.notify"), target.CommandType)
}

func TestIntegrationNotFoundError(t *testing.T) {
	tests := []struct {
		name      string
		err       *IntegrationNotFoundError
		contains  []string
		available bool
	}{
		{
			name:     "no integrations registered",
			err:      &IntegrationNotFoundError{Name: "missing"},
			contains: []string{"missing"},
		},
		{
			name:      "lists available integrations",
			err:       &IntegrationNotFoundError{Name: "missing", Available: []string{"slack", "stripe"}},
			contains:  []string{"missing", "slack, stripe"},
			available: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, ErrIntegrationNotFound)
			for _, s := range tt.contains {
				assert.Contains(t, tt.err.Error(), s)
			}
			assert.Equal(t, tt.available, strings.Contains(tt.err.Error(), "Available integrations"))
		})
	}
}

func TestCallError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewCallError("slack", "Transport error: connection refused", cause)

	assert.Equal(t, "slack", err.Integration)
	assert.Equal(t, "Transport error: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, err.Result)

	withResult := err.WithResult(Failure("prior", nil, nil))
	assert.Nil(t, err.Result)
	if assert.NotNil(t, withResult.Result) {
		assert.Equal(t, "prior", withResult.Result.ErrorMessage())
	}

	noCause := NewCallError("slack", "status 500", nil)
	assert.Nil(t, errors.Unwrap(noCause))
}

func TestPanicError(t *testing.T) {
	err := &PanicError{CommandType: "x", Value: "kaboom"}
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "kaboom")
}
