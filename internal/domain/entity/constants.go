package entity

// Status constants for CallRecord
const (
	CallStatusSuccess = "success"
	CallStatusFailure = "failure"
)

// Export constants
const (
	DefaultExportSheet = "Calls"
	MaxListLimit       = 1000
	DefaultListLimit   = 50
)
