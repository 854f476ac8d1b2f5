package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// QueueRepository is the secondary adapter for queue point reads.
type QueueRepository struct {
	pool *pgxpool.Pool
}

var _ ports.QueueRepository = (*QueueRepository)(nil)

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(pool *pgxpool.Pool) ports.QueueRepository {
	return &QueueRepository{pool: pool}
}

// GetByID retrieves a single queue by its ID.
func (r *QueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Queue, error) {
	var (
		queue          domain.Queue
		avgServiceSecs int64
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, avg_service_seconds, is_active, created_at
		 FROM queues WHERE id = $1`, id).
		Scan(&queue.ID, &queue.TenantID, &queue.Name, &avgServiceSecs, &queue.IsActive, &queue.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueueNotFound
		}
		return nil, storeErr(err)
	}

	queue.AvgServiceTime = time.Duration(avgServiceSecs) * time.Second
	queue.CreatedAt = queue.CreatedAt.UTC()
	return &queue, nil
}
