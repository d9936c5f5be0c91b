package port

import (
	"context"

	"github.com/garyjia/integration-kit/internal/domain/entity"
)

// CallRepository defines persistence operations for the call log
type CallRepository interface {
	Create(ctx context.Context, record *entity.CallRecord) error
	ListRecent(ctx context.Context, limit int) ([]*entity.CallRecord, error)
	ListByIntegration(ctx context.Context, integrationName string, limit int) ([]*entity.CallRecord, error)
	Stats(ctx context.Context) ([]*entity.IntegrationStats, error)
}

