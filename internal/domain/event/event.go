// Package event defines the three events emitted around every integration call.
package event

import (
	"sync"
	"time"

	"github.com/garyjia/integration-kit/internal/domain/integration"
)

// Event is implemented by RequestEvent, SuccessEvent and FailureEvent
type Event interface {
	Type() Type
	CommandType() integration.CommandType
	IntegrationName() string
	Command() integration.Command
	OccurredAt() time.Time
	Metadata() integration.Metadata
}

// header holds the fields shared by all three events
type header struct {
	commandType     integration.CommandType
	integrationName string
	command         integration.Command
	occurredAt      time.Time
}

func newHeader(cmd integration.Command) header {
	return header{
		commandType:     cmd.CommandType(),
		integrationName: cmd.IntegrationName(),
		command:         cmd,
		occurredAt:      time.Now(),
	}
}

// terminalHeader copies the request identity with its own creation time
func terminalHeader(req *RequestEvent) header {
	h := req.header
	h.occurredAt = time.Now()
	return h
}

// CommandType returns the tag of the dispatched command
func (h header) CommandType() integration.CommandType {
	return h.commandType
}

// IntegrationName returns the integration targeted by the command
func (h header) IntegrationName() string {
	return h.integrationName
}

// Command returns the dispatched command instance
func (h header) Command() integration.Command {
	return h.command
}

// OccurredAt returns the wall-clock time the event was created.
// Terminal events carry their own time, not the request's.
func (h header) OccurredAt() time.Time {
	return h.occurredAt
}

// RequestEvent is published before the handler runs.
// Listeners may append to its metadata. The executor snapshots the bag once
// request dispatch returns; later writes reach neither the terminal event nor
// the Result.
type RequestEvent struct {
	header

	mu       sync.RWMutex
	metadata integration.Metadata
}

// NewRequestEvent creates a request event with an empty metadata bag
func NewRequestEvent(cmd integration.Command) *RequestEvent {
	return &RequestEvent{
		header:   newHeader(cmd),
		metadata: integration.Metadata{},
	}
}

// Type returns TypeRequest
func (e *RequestEvent) Type() Type {
	return TypeRequest
}

// AddMetadata sets a metadata key, overwriting any previous value
func (e *RequestEvent) AddMetadata(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metadata[key] = value
}

// Metadata returns a snapshot of the metadata bag
func (e *RequestEvent) Metadata() integration.Metadata {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metadata.Clone()
}

// SuccessEvent is published after the handler returned normally
type SuccessEvent struct {
	header

	result   any
	duration time.Duration
	metadata integration.Metadata
}

// NewSuccessEvent creates a success event from the request it terminates.
// metadata is the request snapshot taken when request dispatch returned.
func NewSuccessEvent(req *RequestEvent, metadata integration.Metadata, result any, duration time.Duration) *SuccessEvent {
	return &SuccessEvent{
		header:   terminalHeader(req),
		result:   result,
		duration: duration,
		metadata: metadata.Clone(),
	}
}

// Type returns TypeSuccess
func (e *SuccessEvent) Type() Type {
	return TypeSuccess
}

// Result returns the handler's return value
func (e *SuccessEvent) Result() any {
	return e.result
}

// Duration returns the elapsed handler time
func (e *SuccessEvent) Duration() time.Duration {
	return e.duration
}

// DurationMs returns the elapsed handler time in milliseconds
func (e *SuccessEvent) DurationMs() float64 {
	return Milliseconds(e.duration)
}

// Metadata returns a copy of the request metadata snapshot
func (e *SuccessEvent) Metadata() integration.Metadata {
	return e.metadata.Clone()
}

// FailureEvent is published after the handler returned an error
type FailureEvent struct {
	header

	err      error
	duration time.Duration
	metadata integration.Metadata
}

// NewFailureEvent creates a failure event from the request it terminates.
// metadata is the request snapshot taken when request dispatch returned.
func NewFailureEvent(req *RequestEvent, metadata integration.Metadata, err error, duration time.Duration) *FailureEvent {
	return &FailureEvent{
		header:   terminalHeader(req),
		err:      err,
		duration: duration,
		metadata: metadata.Clone(),
	}
}

// Type returns TypeFailure
func (e *FailureEvent) Type() Type {
	return TypeFailure
}

// Err returns the error raised by the handler
func (e *FailureEvent) Err() error {
	return e.err
}

// Duration returns the elapsed handler time
func (e *FailureEvent) Duration() time.Duration {
	return e.duration
}

// DurationMs returns the elapsed handler time in milliseconds
func (e *FailureEvent) DurationMs() float64 {
	return Milliseconds(e.duration)
}

// Metadata returns a copy of the request metadata snapshot
func (e *FailureEvent) Metadata() integration.Metadata {
	return e.metadata.Clone()
}

// Milliseconds converts a duration to fractional milliseconds
func Milliseconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
