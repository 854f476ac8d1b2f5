package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
)

// TicketRepository defines the point-read queries the snapshot builder
// composes. Implementations must map "no rows" to ErrTicketNotFound.
type TicketRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	// ListByQueue returns every ticket of the queue, optionally restricted
	// to a single status. Ordering is left to the caller.
	ListByQueue(ctx context.Context, queueID uuid.UUID, status *domain.TicketStatus) ([]*domain.Ticket, error)
}

// QueueRepository defines point reads on queue records.
type QueueRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Queue, error)
}
