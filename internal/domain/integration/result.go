package integration

import "encoding/json"

// Result is the standardized outcome of an instrumented call.
// Exactly one of IsSuccess and IsFailure is true. A Result is never
// mutated after construction; accessors return copies of the metadata.
type Result struct {
	success  bool
	data     any
	message  string
	cause    error
	metadata Metadata
}

// Success creates a successful Result
func Success(data any, metadata Metadata) Result {
	return Result{
		success:  true,
		data:     data,
		metadata: metadata.Clone(),
	}
}

// Failure creates a failed Result. cause may be nil.
func Failure(message string, cause error, metadata Metadata) Result {
	return Result{
		success:  false,
		message:  message,
		cause:    cause,
		metadata: metadata.Clone(),
	}
}

// IsSuccess reports whether the call succeeded
func (r Result) IsSuccess() bool {
	return r.success
}

// IsFailure reports whether the call failed
func (r Result) IsFailure() bool {
	return !r.success
}

// Data returns the handler's return value, nil on failure
func (r Result) Data() any {
	return r.data
}

// ErrorMessage returns the failure message, empty on success
func (r Result) ErrorMessage() string {
	return r.message
}

// Cause returns the error that produced the failure, nil on success
func (r Result) Cause() error {
	return r.cause
}

// Metadata returns a copy of the result metadata
func (r Result) Metadata() Metadata {
	return r.metadata.Clone()
}

// DurationMs returns the recorded call duration, 0 when absent
func (r Result) DurationMs() float64 {
	return r.metadata.Float(MetadataDurationKey)
}

type resultJSON struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// MarshalJSON renders the result for logs, queues and HTTP responses.
// The cause is reduced to its message.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Success:  r.success,
		Data:     r.data,
		Error:    r.message,
		Metadata: r.metadata.Clone(),
	})
}
