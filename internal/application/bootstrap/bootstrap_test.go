package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notify struct{}

func (notify) CommandType() integration.CommandType { return "slack.notify" }
func (notify) IntegrationName() string              { return "slack" }

func newHandler(label string) integration.Handler {
	return integration.NewHandlerFunc("slack.notify", func(ctx context.Context, cmd notify) (any, error) {
		return label, nil
	})
}

func TestLoad_RegistersCatalog(t *testing.T) {
	integrations := registry.NewIntegrationRegistry()
	handlers := registry.NewHandlerRegistry()
	slack := integration.NewIntegration("slack", "Slack webhooks")
	h := newHandler("v1")

	err := Load(Catalog{
		Integrations: []integration.Integration{slack},
		Handlers:     []integration.Handler{h},
	}, integrations, handlers, nil)
	require.NoError(t, err)

	got, err := integrations.Get("slack")
	require.NoError(t, err)
	assert.Same(t, slack, got)

	resolved, err := handlers.HandlerFor("slack.notify")
	require.NoError(t, err)
	assert.Same(t, h, resolved)
}

func TestLoad_DuplicateHandlerLastWins(t *testing.T) {
	handlers := registry.NewHandlerRegistry()
	first := newHandler("first")
	second := newHandler("second")

	err := Load(Catalog{Handlers: []integration.Handler{first, second}}, registry.NewIntegrationRegistry(), handlers, nil)
	require.NoError(t, err)

	resolved, err := handlers.HandlerFor("slack.notify")
	require.NoError(t, err)
	assert.Same(t, second, resolved)

	value, err := resolved.Handle(context.Background(), notify{})
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestLoad_Rejections(t *testing.T) {
	slack := integration.NewIntegration("slack", "")

	tests := []struct {
		name    string
		catalog Catalog
		preload []integration.Integration
		wantErr error
	}{
		{
			name: "distinct integrations share a name",
			catalog: Catalog{Integrations: []integration.Integration{
				integration.NewIntegration("slack", "a"),
				integration.NewIntegration("slack", "b"),
			}},
			wantErr: ErrDuplicateIntegration,
		},
		{
			name:    "name already registered",
			catalog: Catalog{Integrations: []integration.Integration{integration.NewIntegration("slack", "b")}},
			preload: []integration.Integration{integration.NewIntegration("slack", "a")},
			wantErr: ErrDuplicateIntegration,
		},
		{
			name:    "empty integration name",
			catalog: Catalog{Integrations: []integration.Integration{integration.NewIntegration("", "")}},
			wantErr: ErrInvalidIntegration,
		},
		{
			name:    "malformed integration name",
			catalog: Catalog{Integrations: []integration.Integration{integration.NewIntegration("Slack Hooks", "")}},
			wantErr: ErrInvalidIntegration,
		},
		{
			name:    "nil integration",
			catalog: Catalog{Integrations: []integration.Integration{nil}},
			wantErr: ErrInvalidIntegration,
		},
		{
			name:    "nil handler",
			catalog: Catalog{Integrations: []integration.Integration{slack}, Handlers: []integration.Handler{nil}},
			wantErr: ErrInvalidHandler,
		},
		{
			name: "empty command type",
			catalog: Catalog{Handlers: []integration.Handler{
				integration.NewHandlerFunc("", func(ctx context.Context, cmd notify) (any, error) { return nil, nil }),
			}},
			wantErr: ErrInvalidHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integrations := registry.NewIntegrationRegistry()
			for _, i := range tt.preload {
				integrations.Register(i.Name(), i)
			}
			handlers := registry.NewHandlerRegistry()

			err := Load(tt.catalog, integrations, handlers, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, handlers.CommandTypes())
			assert.Len(t, integrations.Names(), len(tt.preload))
		})
	}
}

func TestLoad_SameIntegrationTwiceIsAccepted(t *testing.T) {
	integrations := registry.NewIntegrationRegistry()
	slack := integration.NewIntegration("slack", "")

	err := Load(Catalog{Integrations: []integration.Integration{slack, slack}}, integrations, registry.NewHandlerRegistry(), nil)
	require.NoError(t, err)

	err = Load(Catalog{Integrations: []integration.Integration{slack}}, integrations, registry.NewHandlerRegistry(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"slack"}, integrations.Names())
}

func TestCatalog_Merge(t *testing.T) {
	a := Catalog{Integrations: []integration.Integration{integration.NewIntegration("slack", "")}}
	b := Catalog{Handlers: []integration.Handler{newHandler("x")}}

	merged := a.Merge(b)
	assert.Len(t, merged.Integrations, 1)
	assert.Len(t, merged.Handlers, 1)
	assert.Empty(t, a.Handlers)
}
