package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		want   bool
	}{
		{"WAITING is valid", domain.StatusWaiting, true},
		{"CALLED is valid", domain.StatusCalled, true},
		{"COMPLETED is valid", domain.StatusCompleted, true},
		{"NO_SHOW is valid", domain.StatusNoShow, true},
		{"CANCELLED is valid", domain.StatusCancelled, true},
		{"empty is invalid", domain.TicketStatus(""), false},
		{"OPEN is invalid", domain.TicketStatus("OPEN"), false},
		{"lowercase is invalid", domain.TicketStatus("waiting"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestTicket_ServiceDuration(t *testing.T) {
	calledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	completedAt := calledAt.Add(7 * time.Minute)

	t.Run("call to completion", func(t *testing.T) {
		ticket := &domain.Ticket{CalledAt: &calledAt, CompletedAt: &completedAt}
		assert.Equal(t, 7*time.Minute, ticket.ServiceDuration())
	})

	t.Run("zero without both timestamps", func(t *testing.T) {
		assert.Zero(t, (&domain.Ticket{}).ServiceDuration())
		assert.Zero(t, (&domain.Ticket{CalledAt: &calledAt}).ServiceDuration())
		assert.Zero(t, (&domain.Ticket{CompletedAt: &completedAt}).ServiceDuration())
	})

	t.Run("zero when completion precedes the call", func(t *testing.T) {
		earlier := calledAt.Add(-time.Minute)
		ticket := &domain.Ticket{CalledAt: &calledAt, CompletedAt: &earlier}
		assert.Zero(t, ticket.ServiceDuration())
	})
}

func TestTicket_DayHelpers(t *testing.T) {
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("created on the same UTC day", func(t *testing.T) {
		ticket := &domain.Ticket{CreatedAt: noon.Add(-11 * time.Hour)}
		assert.True(t, ticket.CreatedOn(noon))
		assert.False(t, ticket.CreatedOn(noon.Add(24*time.Hour)))
	})

	t.Run("day boundary is midnight UTC", func(t *testing.T) {
		justBefore := time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)
		ticket := &domain.Ticket{CreatedAt: justBefore}
		assert.False(t, ticket.CreatedOn(noon))
	})

	t.Run("completed on requires a completion timestamp", func(t *testing.T) {
		assert.False(t, (&domain.Ticket{}).CompletedOn(noon))

		completedAt := noon.Add(-time.Hour)
		ticket := &domain.Ticket{CompletedAt: &completedAt}
		assert.True(t, ticket.CompletedOn(noon))
	})

	t.Run("called within window", func(t *testing.T) {
		calledAt := noon.Add(-time.Hour)
		ticket := &domain.Ticket{CalledAt: &calledAt}
		assert.True(t, ticket.CalledWithin(noon.Add(-3*time.Hour)))
		assert.False(t, ticket.CalledWithin(noon))
		assert.False(t, (&domain.Ticket{}).CalledWithin(noon.Add(-3*time.Hour)))
	})
}

func TestChangeEvent_DedupKey(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	event := domain.ChangeEvent{
		EntityID:   "abc",
		Action:     domain.ActionUpdated,
		OccurredAt: at,
	}

	t.Run("stable for identical deliveries", func(t *testing.T) {
		duplicate := event
		assert.Equal(t, event.DedupKey(), duplicate.DedupKey())
	})

	t.Run("distinct per entity, action and instant", func(t *testing.T) {
		other := event
		other.Action = domain.ActionDeleted
		assert.NotEqual(t, event.DedupKey(), other.DedupKey())

		later := event
		later.OccurredAt = at.Add(time.Nanosecond)
		assert.NotEqual(t, event.DedupKey(), later.DedupKey())
	})
}

func TestNewTicketView(t *testing.T) {
	calledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:         uuid.New(),
		QueueID:    uuid.New(),
		Number:     42,
		Priority:   2,
		Status:     domain.StatusCalled,
		HolderName: "Visitor",
		CreatedAt:  calledAt.Add(-30 * time.Minute),
		CalledAt:   &calledAt,
	}

	view := domain.NewTicketView(ticket)

	assert.Equal(t, ticket.ID.String(), view.ID)
	assert.Equal(t, ticket.QueueID.String(), view.QueueID)
	assert.Equal(t, 42, view.Number)
	assert.Equal(t, "CALLED", view.Status)
	require.NotNil(t, view.CalledAt)
	assert.Equal(t, "2025-06-01T12:00:00Z", *view.CalledAt)
	assert.Nil(t, view.CompletedAt)
}
