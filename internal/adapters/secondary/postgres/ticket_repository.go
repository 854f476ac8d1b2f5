package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// TicketRepository is the secondary adapter for ticket point reads.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, queue_id, number, priority, status, holder_name, created_at, called_at, completed_at`

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, storeErr(err)
	}
	return ticket, nil
}

// ListByQueue retrieves all tickets of a queue, optionally restricted to
// one status. Ordering is left to the snapshot builder.
func (r *TicketRepository) ListByQueue(ctx context.Context, queueID uuid.UUID, status *domain.TicketStatus) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE queue_id = $1`
	args := []any{queueID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		status      string
		holderName  pgtype.Text
		calledAt    pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.QueueID,
		&ticket.Number,
		&ticket.Priority,
		&status,
		&holderName,
		&ticket.CreatedAt,
		&calledAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatus(status)
	if holderName.Valid {
		ticket.HolderName = holderName.String
	}
	if calledAt.Valid {
		value := calledAt.Time.UTC()
		ticket.CalledAt = &value
	}
	if completedAt.Valid {
		value := completedAt.Time.UTC()
		ticket.CompletedAt = &value
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()

	return &ticket, nil
}
