// Package registry holds the lookup tables consulted during dispatch:
// command type to handler, and integration name to descriptor.
package registry

import (
	"sort"
	"sync"

	"github.com/garyjia/integration-kit/internal/domain/integration"
)

// HandlerRegistry maps each command type to the single handler executing it.
// Registration is expected at startup; lookups are safe for concurrent use.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[integration.CommandType]integration.Handler
}

// NewHandlerRegistry creates an empty handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[integration.CommandType]integration.Handler),
	}
}

// Register binds handler to commandType, replacing any previous binding
func (r *HandlerRegistry) Register(commandType integration.CommandType, handler integration.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[commandType] = handler
}

// HandlerFor returns the handler bound to commandType.
// It returns a *integration.HandlerNotFoundError on a miss.
func (r *HandlerRegistry) HandlerFor(commandType integration.CommandType) (integration.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[commandType]
	if !ok {
		return nil, &integration.HandlerNotFoundError{CommandType: commandType}
	}
	return handler, nil
}

// HasHandlerFor reports whether a handler is bound to commandType
func (r *HandlerRegistry) HasHandlerFor(commandType integration.CommandType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[commandType]
	return ok
}

// CommandTypes returns the registered command types in sorted order
func (r *HandlerRegistry) CommandTypes() []integration.CommandType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]integration.CommandType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
