package entity

import (
	"time"

	"github.com/garyjia/integration-kit/internal/domain/integration"
)

// CallRecord is one persisted integration dispatch
type CallRecord struct {
	ID              int64                   `json:"id"`
	RequestID       string                  `json:"request_id,omitempty"`
	CommandType     integration.CommandType `json:"command_type"`
	IntegrationName string                  `json:"integration_name"`
	Status          string                  `json:"status"`
	DurationMs      float64                 `json:"duration_ms"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	ErrorClass      string                  `json:"error_class,omitempty"`
	Metadata        integration.Metadata    `json:"metadata"`
	CreatedAt       time.Time               `json:"created_at"`
}

// IsSuccess reports whether the call succeeded
func (r *CallRecord) IsSuccess() bool {
	return r.Status == CallStatusSuccess
}

// IntegrationStats aggregates the call log of one integration
type IntegrationStats struct {
	IntegrationName string    `json:"integration_name"`
	Total           int       `json:"total"`
	Successes       int       `json:"successes"`
	Failures        int       `json:"failures"`
	AvgDurationMs   float64   `json:"avg_duration_ms"`
	LastCallAt      time.Time `json:"last_call_at"`
}

// SuccessRate returns the share of successful calls in [0, 1]
func (s IntegrationStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Total)
}
