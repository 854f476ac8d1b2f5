package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

const (
	nextTicketsLimit      = 5
	lastCalledLimit       = 5
	completedTicketsLimit = 10

	// recentCallWindow is the lookback used to estimate the per-ticket
	// service time from actual call history.
	recentCallWindow = 3 * time.Hour
)

// SnapshotService reconstructs a queue's current state on demand by
// composing point queries. Every build produces a fresh value.
type SnapshotService struct {
	queueRepo  ports.QueueRepository
	ticketRepo ports.TicketRepository
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.SnapshotBuilder = (*SnapshotService)(nil)

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(
	queueRepo ports.QueueRepository,
	ticketRepo ports.TicketRepository,
	logger *slog.Logger,
) *SnapshotService {
	return &SnapshotService{
		queueRepo:  queueRepo,
		ticketRepo: ticketRepo,
		logger:     logger.With("component", "snapshot_service"),
		now:        time.Now,
	}
}

// WithClock overrides the service's notion of "now". Test hook.
func (s *SnapshotService) WithClock(now func() time.Time) *SnapshotService {
	s.now = now
	return s
}

// BuildQueueSnapshot fetches the queue record and all of its tickets, then
// derives the current/next/recent views and statistics in memory. An
// unknown queue is a client-visible error; a failing ticket query degrades
// to an empty set rather than failing the build.
func (s *SnapshotService) BuildQueueSnapshot(ctx context.Context, queueID uuid.UUID) (*domain.QueueSnapshot, error) {
	queue, err := s.queueRepo.GetByID(ctx, queueID)
	if err != nil {
		if errors.Is(err, apperrors.ErrQueueNotFound) {
			return nil, apperrors.ErrQueueNotFound
		}
		return nil, err
	}

	tickets, err := s.ticketRepo.ListByQueue(ctx, queueID, nil)
	if err != nil {
		s.logger.Error("ticket lookup failed, building snapshot from empty set",
			"queue_id", queueID.String(),
			"error", err,
		)
		tickets = nil
	}

	now := s.now().UTC()

	snapshot := &domain.QueueSnapshot{
		QueueID:     queue.ID.String(),
		QueueName:   queue.Name,
		GeneratedAt: now.Format(time.RFC3339),
	}

	waiting := filterTickets(tickets, func(t *domain.Ticket) bool { return t.IsWaiting() })
	sortWaiting(waiting)

	called := filterTickets(tickets, func(t *domain.Ticket) bool { return t.CalledAt != nil })
	sort.Slice(called, func(i, j int) bool {
		return called[i].CalledAt.After(*called[j].CalledAt)
	})

	completed := filterTickets(tickets, func(t *domain.Ticket) bool { return t.CompletedAt != nil })
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})

	// The current ticket is the most recently called ticket that is still
	// being served. The previous ticket is the most recently called one
	// that already left the counter.
	for _, ticket := range called {
		if ticket.IsCalled() {
			snapshot.CurrentTicket = viewOf(ticket)
			break
		}
	}
	for _, ticket := range called {
		if !ticket.IsCalled() {
			snapshot.PreviousTicket = viewOf(ticket)
			break
		}
	}
	if len(waiting) > 0 {
		snapshot.NextTicket = viewOf(waiting[0])
	}

	snapshot.NextTickets = viewsOf(waiting, nextTicketsLimit)
	snapshot.LastCalledTickets = viewsOf(called, lastCalledLimit)
	snapshot.CompletedTickets = viewsOf(completed, completedTicketsLimit)
	snapshot.Statistics = s.computeStatistics(queue, tickets, len(waiting), now)

	return snapshot, nil
}

// sortWaiting orders waiting tickets for calling: priority is the primary
// key (higher first) and is never overridden by recency; equal priorities
// are served first-come-first-served.
func sortWaiting(waiting []*domain.Ticket) {
	sort.Slice(waiting, func(i, j int) bool {
		if waiting[i].Priority != waiting[j].Priority {
			return waiting[i].Priority > waiting[j].Priority
		}
		return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
	})
}

// computeStatistics derives the aggregate numbers from the in-memory
// ticket set. All arithmetic on empty sets yields zero.
func (s *SnapshotService) computeStatistics(queue *domain.Queue, tickets []*domain.Ticket, totalWaiting int, now time.Time) domain.QueueStatistics {
	stats := domain.QueueStatistics{TotalWaiting: totalWaiting}

	var createdToday, completedToday, noShowToday int
	var todayWait time.Duration

	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.StatusCalled:
			stats.TotalCalled++
		case domain.StatusCompleted:
			stats.TotalCompleted++
		}

		if ticket.CreatedOn(now) {
			createdToday++
			if ticket.Status == domain.StatusNoShow {
				noShowToday++
			}
		}
		if ticket.CompletedOn(now) {
			completedToday++
			todayWait += ticket.ServiceDuration()
		}
	}

	stats.CompletedToday = completedToday
	stats.NoShowToday = noShowToday

	if completedToday > 0 {
		stats.AvgWaitTime = int64(todayWait.Seconds()) / int64(completedToday)
	}
	if createdToday > 0 {
		stats.CompletionRate = percentage(completedToday, createdToday)
		stats.AbandonmentRate = percentage(noShowToday, createdToday)
	}

	perTicket := s.estimateServiceTime(queue, tickets, now)
	stats.NextEstimatedTime = int64(perTicket.Seconds()) * int64(totalWaiting)

	return stats
}

// estimateServiceTime averages the call-to-completion time of tickets
// called inside the recent window, falling back to the queue's configured
// average when there is no recent history.
func (s *SnapshotService) estimateServiceTime(queue *domain.Queue, tickets []*domain.Ticket, now time.Time) time.Duration {
	since := now.Add(-recentCallWindow)

	var total time.Duration
	var count int
	for _, ticket := range tickets {
		if !ticket.CalledWithin(since) || ticket.CompletedAt == nil {
			continue
		}
		total += ticket.ServiceDuration()
		count++
	}

	if count == 0 {
		return queue.AvgServiceTime
	}
	return total / time.Duration(count)
}

func percentage(part, whole int) float64 {
	return float64(part) / float64(whole) * 100
}

func filterTickets(tickets []*domain.Ticket, keep func(*domain.Ticket) bool) []*domain.Ticket {
	var out []*domain.Ticket
	for _, ticket := range tickets {
		if keep(ticket) {
			out = append(out, ticket)
		}
	}
	return out
}

func viewOf(ticket *domain.Ticket) *domain.TicketView {
	view := domain.NewTicketView(ticket)
	return &view
}

func viewsOf(tickets []*domain.Ticket, limit int) []domain.TicketView {
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	views := make([]domain.TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		views = append(views, domain.NewTicketView(ticket))
	}
	return views
}
