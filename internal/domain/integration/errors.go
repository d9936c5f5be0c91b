package integration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHandlerNotFound is returned when no handler is registered for a command type
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrIntegrationNotFound is returned when no integration is registered under a name
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrUnexpectedCommand is returned when a handler receives a command it does not support
	ErrUnexpectedCommand = errors.New("unexpected command")

	// ErrHandlerPanic is returned when a handler panics during a call
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerNotFoundError reports a registry miss for a command type
type HandlerNotFoundError struct {
	CommandType CommandType
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("no handler found for command %q", e.CommandType)
}

// Is matches ErrHandlerNotFound
func (e *HandlerNotFoundError) Is(target error) bool {
	return target == ErrHandlerNotFound
}

// IntegrationNotFoundError reports a registry miss for an integration name.
// Available holds the names registered at the time of the lookup.
type IntegrationNotFoundError struct {
	Name      string
	Available []string
}

func (e *IntegrationNotFoundError) Error() string {
	msg := fmt.Sprintf("Integration %q not found.", e.Name)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" Available integrations: %s.", strings.Join(e.Available, ", "))
	}
	return msg
}

// Is matches ErrIntegrationNotFound
func (e *IntegrationNotFoundError) Is(target error) bool {
	return target == ErrIntegrationNotFound
}

// CallError is raised by handlers when the external call fails.
// It carries the integration name, an optional cause and an optional prior Result.
type CallError struct {
	Integration string
	Message     string
	Cause       error
	Result      *Result
}

// NewCallError creates a CallError for the given integration
func NewCallError(integrationName, message string, cause error) *CallError {
	return &CallError{
		Integration: integrationName,
		Message:     message,
		Cause:       cause,
	}
}

// WithResult returns a copy of the error carrying result
func (e *CallError) WithResult(result Result) *CallError {
	cp := *e
	cp.Result = &result
	return &cp
}

func (e *CallError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause
func (e *CallError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking handler
type PanicError struct {
	CommandType CommandType
	Value       any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler for %s panicked: %v", e.CommandType, e.Value)
}

// Is matches ErrHandlerPanic
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
