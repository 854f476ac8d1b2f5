package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a queue ticket.
type TicketStatus string

const (
	StatusWaiting   TicketStatus = "WAITING"
	StatusCalled    TicketStatus = "CALLED"
	StatusCompleted TicketStatus = "COMPLETED"
	StatusNoShow    TicketStatus = "NO_SHOW"
	StatusCancelled TicketStatus = "CANCELLED"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// Ticket is the core domain entity: one visitor's place in a queue.
type Ticket struct {
	ID          uuid.UUID
	QueueID     uuid.UUID
	Number      int
	Priority    int
	Status      TicketStatus
	HolderName  string
	CreatedAt   time.Time
	CalledAt    *time.Time
	CompletedAt *time.Time
}

// IsWaiting reports whether the ticket is still in line.
func (t *Ticket) IsWaiting() bool {
	return t.Status == StatusWaiting
}

// IsCalled reports whether the ticket is currently being served.
func (t *Ticket) IsCalled() bool {
	return t.Status == StatusCalled
}

// ServiceDuration returns how long the holder was served, from call to
// completion. Zero when either timestamp is missing.
func (t *Ticket) ServiceDuration() time.Duration {
	if t.CalledAt == nil || t.CompletedAt == nil {
		return 0
	}
	d := t.CompletedAt.Sub(*t.CalledAt)
	if d < 0 {
		return 0
	}
	return d
}

// CreatedOn reports whether the ticket was created on the given day (UTC).
func (t *Ticket) CreatedOn(day time.Time) bool {
	return sameDay(t.CreatedAt, day)
}

// CompletedOn reports whether the ticket was completed on the given day (UTC).
func (t *Ticket) CompletedOn(day time.Time) bool {
	return t.CompletedAt != nil && sameDay(*t.CompletedAt, day)
}

// CalledWithin reports whether the ticket was called after the given instant.
func (t *Ticket) CalledWithin(since time.Time) bool {
	return t.CalledAt != nil && t.CalledAt.After(since)
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.UTC().Date()
	y2, m2, d2 := b.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
