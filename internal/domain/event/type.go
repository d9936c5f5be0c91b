package event

// Type identifies the type of integration event
type Type string

const (
	TypeRequest Type = "integration.request"
	TypeSuccess Type = "integration.success"
	TypeFailure Type = "integration.failure"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// Status returns the short status label used in logs and the call log
func (t Type) Status() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeSuccess:
		return "success"
	case TypeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequest,
		TypeSuccess,
		TypeFailure:
		return true
	default:
		return false
	}
}
