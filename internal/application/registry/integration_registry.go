package registry

import (
	"sort"
	"sync"

	"github.com/garyjia/integration-kit/internal/domain/integration"
)

// IntegrationRegistry maps integration names to their descriptors.
// It is used for discovery only and plays no part in dispatch.
type IntegrationRegistry struct {
	mu           sync.RWMutex
	integrations map[string]integration.Integration
}

// NewIntegrationRegistry creates an empty integration registry
func NewIntegrationRegistry() *IntegrationRegistry {
	return &IntegrationRegistry{
		integrations: make(map[string]integration.Integration),
	}
}

// Register stores i under name, replacing any previous entry
func (r *IntegrationRegistry) Register(name string, i integration.Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[name] = i
}

// Get returns the integration registered under name.
// On a miss the returned *integration.IntegrationNotFoundError lists the
// names available at lookup time.
func (r *IntegrationRegistry) Get(name string) (integration.Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.integrations[name]
	if !ok {
		return nil, &integration.IntegrationNotFoundError{
			Name:      name,
			Available: r.namesLocked(),
		}
	}
	return i, nil
}

// Has reports whether name is registered
func (r *IntegrationRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.integrations[name]
	return ok
}

// All returns a copy of the registered integrations
func (r *IntegrationRegistry) All() map[string]integration.Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]integration.Integration, len(r.integrations))
	for name, i := range r.integrations {
		out[name] = i
	}
	return out
}

// Names returns the registered names in sorted order
func (r *IntegrationRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *IntegrationRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.integrations))
	for name := range r.integrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
