// Package integration defines the contracts shared by every external API call:
// commands, the handlers that execute them, the integrations they belong to,
// the standardized Result value and the error taxonomy.
package integration

import (
	"context"
	"fmt"
)

// CommandType is the explicit variant tag of a command.
// Handlers are resolved by exact match on this tag.
type CommandType string

// String returns the string representation of the command type
func (t CommandType) String() string {
	return string(t)
}

// Command describes one operation against an external API.
type Command interface {
	// CommandType returns the tag used to resolve the handler
	CommandType() CommandType

	// IntegrationName returns the name of the integration the command targets
	IntegrationName() string
}

// Handler executes exactly one command type.
type Handler interface {
	// Supports returns the command type this handler processes
	Supports() CommandType

	// Handle performs the external call and returns its business value
	Handle(ctx context.Context, cmd Command) (any, error)
}

// HandlerFunc adapts a typed function to the Handler interface.
type HandlerFunc[C Command] struct {
	commandType CommandType
	fn          func(context.Context, C) (any, error)
}

// NewHandlerFunc creates a handler for commands of type C tagged with commandType.
//
// Example:
//
//	h := integration.NewHandlerFunc("slack.notify", func(ctx context.Context, cmd NotifyCommand) (any, error) {
//	    return nil, client.Post(ctx, cmd.Text)
//	})
func NewHandlerFunc[C Command](commandType CommandType, fn func(context.Context, C) (any, error)) *HandlerFunc[C] {
	return &HandlerFunc[C]{
		commandType: commandType,
		fn:          fn,
	}
}

// Supports returns the command type this handler processes
func (h *HandlerFunc[C]) Supports() CommandType {
	return h.commandType
}

// Handle asserts the command type and calls the wrapped function
func (h *HandlerFunc[C]) Handle(ctx context.Context, cmd Command) (any, error) {
	typed, ok := cmd.(C)
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %T", ErrUnexpectedCommand, h.commandType, cmd)
	}
	return h.fn(ctx, typed)
}

// Integration is a named logical group of operations (e.g. "slack").
// It has no behavior and is only used for discovery.
type Integration interface {
	Name() string
}

// Descriptor is the default Integration implementation
type Descriptor struct {
	name        string
	description string
}

// NewIntegration creates a named integration descriptor
func NewIntegration(name, description string) *Descriptor {
	return &Descriptor{name: name, description: description}
}

// Name returns the integration name
func (d *Descriptor) Name() string {
	return d.name
}

// Description returns a human readable description
func (d *Descriptor) Description() string {
	return d.description
}
