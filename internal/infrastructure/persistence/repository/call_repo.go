package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/entity"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/garyjia/integration-kit/pkg/database"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// CallRepository implements port.CallRepository on sqlite
type CallRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *database.DB, logger *zap.Logger) *CallRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallRepository{
		db:     db,
		logger: logger,
	}
}

const callColumns = `id, request_id, command_type, integration_name, status,
	duration_ms, error_message, error_class, metadata, created_at`

// Create inserts a call record and sets its ID
func (r *CallRepository) Create(ctx context.Context, record *entity.CallRecord) error {
	query := `
		INSERT INTO integration_calls (
			request_id, command_type, integration_name, status,
			duration_ms, error_message, error_class, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC()

	metadata, err := json.Marshal(record.Metadata.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal call metadata: %w", err)
	}

	result, err := r.db.Conn(ctx).ExecContext(ctx, query,
		nullString(record.RequestID),
		record.CommandType.String(),
		record.IntegrationName,
		record.Status,
		record.DurationMs,
		nullString(record.ErrorMessage),
		nullString(record.ErrorClass),
		string(metadata),
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create call record",
			zap.String("command_type", record.CommandType.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListRecent returns the latest calls, newest first
func (r *CallRepository) ListRecent(ctx context.Context, limit int) ([]*entity.CallRecord, error) {
	query := `SELECT ` + callColumns + `
		FROM integration_calls
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	return r.list(ctx, query, clampLimit(limit))
}

// ListByIntegration returns the latest calls of one integration, newest first
func (r *CallRepository) ListByIntegration(ctx context.Context, integrationName string, limit int) ([]*entity.CallRecord, error) {
	query := `SELECT ` + callColumns + `
		FROM integration_calls
		WHERE integration_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	return r.list(ctx, query, integrationName, clampLimit(limit))
}

// Stats aggregates the call log per integration, ordered by name
func (r *CallRepository) Stats(ctx context.Context) ([]*entity.IntegrationStats, error) {
	query := `
		SELECT integration_name,
			COUNT(*),
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failure' THEN 1 ELSE 0 END),
			AVG(duration_ms),
			MAX(created_at)
		FROM integration_calls
		GROUP BY integration_name
		ORDER BY integration_name
	`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query call stats", zap.Error(err))
		return nil, fmt.Errorf("failed to query call stats: %w", err)
	}
	defer rows.Close()

	var stats []*entity.IntegrationStats
	for rows.Next() {
		var s entity.IntegrationStats
		var lastCall sql.NullString

		if err := rows.Scan(&s.IntegrationName, &s.Total, &s.Successes, &s.Failures, &s.AvgDurationMs, &lastCall); err != nil {
			return nil, fmt.Errorf("failed to scan call stats: %w", err)
		}
		if lastCall.Valid {
			s.LastCallAt = parseTimestamp(lastCall.String)
		}
		stats = append(stats, &s)
	}

	return stats, rows.Err()
}

func (r *CallRepository) list(ctx context.Context, query string, args ...any) ([]*entity.CallRecord, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list call records", zap.Error(err))
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.CallRecord, 0)
	for rows.Next() {
		record, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanCall(rows *sql.Rows) (*entity.CallRecord, error) {
	var record entity.CallRecord
	var commandType string
	var requestID, errorMsg, errorClass sql.NullString
	var metadata string

	err := rows.Scan(
		&record.ID,
		&requestID,
		&commandType,
		&record.IntegrationName,
		&record.Status,
		&record.DurationMs,
		&errorMsg,
		&errorClass,
		&metadata,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan call record: %w", err)
	}

	record.CommandType = integration.CommandType(commandType)
	record.RequestID = requestID.String
	record.ErrorMessage = errorMsg.String
	record.ErrorClass = errorClass.String

	record.Metadata = integration.Metadata{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of call %d: %w", record.ID, err)
		}
	}

	return &record, nil
}

// parseTimestamp reads a timestamp as stored by the sqlite driver.
// Aggregates lose the column type, so the driver returns them as text.
func parseTimestamp(s string) time.Time {
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return entity.DefaultListLimit
	}
	if limit > entity.MaxListLimit {
		return entity.MaxListLimit
	}
	return limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify interface compliance
var _ port.CallRepository = (*CallRepository)(nil)
