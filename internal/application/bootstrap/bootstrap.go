// Package bootstrap populates the registries once at process start.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/garyjia/integration-kit/internal/application/registry"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/garyjia/integration-kit/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateIntegration is returned when two distinct integrations share a name
	ErrDuplicateIntegration = errors.New("duplicate integration name")

	// ErrInvalidIntegration is returned for a nil integration or an empty name
	ErrInvalidIntegration = errors.New("invalid integration")

	// ErrInvalidHandler is returned for a nil handler or an empty command type
	ErrInvalidHandler = errors.New("invalid handler")
)

// Catalog lists everything to register at startup
type Catalog struct {
	Integrations []integration.Integration
	Handlers     []integration.Handler
}

// Merge returns a catalog holding the entries of c followed by those of other
func (c Catalog) Merge(other Catalog) Catalog {
	return Catalog{
		Integrations: append(append([]integration.Integration{}, c.Integrations...), other.Integrations...),
		Handlers:     append(append([]integration.Handler{}, c.Handlers...), other.Handlers...),
	}
}

// Load validates the catalog and registers its entries.
// Nothing is registered when validation fails.
//
// Two distinct integrations with the same name are rejected, including one
// already present in the registry. Handlers bound to the same command type
// replace each other in catalog order; the last one wins.
func Load(catalog Catalog, integrations *registry.IntegrationRegistry, handlers *registry.HandlerRegistry, logger *zap.Logger) error {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	if err := validate(catalog, integrations); err != nil {
		return err
	}

	for _, i := range catalog.Integrations {
		integrations.Register(i.Name(), i)
		logger.Debug("Integration registered", zap.String("integration_name", i.Name()))
	}

	for _, h := range catalog.Handlers {
		if handlers.HasHandlerFor(h.Supports()) {
			logger.Debug("Handler replaced", zap.String("command_type", h.Supports().String()))
		}
		handlers.Register(h.Supports(), h)
		logger.Debug("Handler registered", zap.String("command_type", h.Supports().String()))
	}

	logger.Info("Registries loaded",
		zap.Int("integrations", len(catalog.Integrations)),
		zap.Int("handlers", len(catalog.Handlers)))

	return nil
}

func validate(catalog Catalog, integrations *registry.IntegrationRegistry) error {
	seen := make(map[string]integration.Integration, len(catalog.Integrations))

	for idx, i := range catalog.Integrations {
		if i == nil {
			return fmt.Errorf("%w: entry %d is nil", ErrInvalidIntegration, idx)
		}

		name := i.Name()
		if err := utils.ValidateIntegrationName(name); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidIntegration, idx, err)
		}

		if prev, ok := seen[name]; ok && prev != i {
			return fmt.Errorf("%w: %q", ErrDuplicateIntegration, name)
		}
		if existing, err := integrations.Get(name); err == nil && existing != i {
			return fmt.Errorf("%w: %q is already registered", ErrDuplicateIntegration, name)
		}
		seen[name] = i
	}

	for idx, h := range catalog.Handlers {
		if h == nil {
			return fmt.Errorf("%w: entry %d is nil", ErrInvalidHandler, idx)
		}
		if h.Supports() == "" {
			return fmt.Errorf("%w: entry %d (%T) has an empty command type", ErrInvalidHandler, idx, h)
		}
	}

	return nil
}
