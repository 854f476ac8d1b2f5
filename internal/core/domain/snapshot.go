package domain

import (
	"time"
)

// TicketView matches the API response shape for a ticket inside a snapshot.
type TicketView struct {
	ID          string  `json:"id"`
	QueueID     string  `json:"queueId"`
	Number      int     `json:"number"`
	Priority    int     `json:"priority"`
	Status      string  `json:"status"`
	HolderName  string  `json:"holderName,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	CalledAt    *string `json:"calledAt"`
	CompletedAt *string `json:"completedAt"`
}

// QueueStatistics are the derived numbers pushed alongside every snapshot.
// All values default to zero on an empty ticket set.
type QueueStatistics struct {
	TotalWaiting   int `json:"totalWaiting"`
	TotalCalled    int `json:"totalCalled"`
	TotalCompleted int `json:"totalCompleted"`
	CompletedToday int `json:"completedToday"`
	NoShowToday    int `json:"noShowToday"`
	// AvgWaitTime and NextEstimatedTime are reported in whole seconds.
	AvgWaitTime       int64   `json:"avgWaitTimeSeconds"`
	NextEstimatedTime int64   `json:"nextEstimatedSeconds"`
	CompletionRate    float64 `json:"completionRate"`
	AbandonmentRate   float64 `json:"abandonmentRate"`
}

// QueueSnapshot is a freshly computed, immutable summary of a queue's
// current, upcoming and recent tickets. Each build produces a new value;
// snapshots are never mutated in place or cached across calls.
type QueueSnapshot struct {
	QueueID           string          `json:"queueId"`
	QueueName         string          `json:"queueName"`
	CurrentTicket     *TicketView     `json:"currentTicket"`
	PreviousTicket    *TicketView     `json:"previousTicket"`
	NextTicket        *TicketView     `json:"nextTicket"`
	NextTickets       []TicketView    `json:"nextTickets"`
	LastCalledTickets []TicketView    `json:"lastCalledTickets"`
	CompletedTickets  []TicketView    `json:"completedTickets"`
	Statistics        QueueStatistics `json:"statistics"`
	GeneratedAt       string          `json:"generatedAt"`
}

// NewTicketView builds the API view of a domain ticket.
func NewTicketView(ticket *Ticket) TicketView {
	view := TicketView{
		ID:         ticket.ID.String(),
		QueueID:    ticket.QueueID.String(),
		Number:     ticket.Number,
		Priority:   ticket.Priority,
		Status:     string(ticket.Status),
		HolderName: ticket.HolderName,
		CreatedAt:  ticket.CreatedAt.UTC().Format(time.RFC3339),
	}

	if ticket.CalledAt != nil {
		value := ticket.CalledAt.UTC().Format(time.RFC3339)
		view.CalledAt = &value
	}
	if ticket.CompletedAt != nil {
		value := ticket.CompletedAt.UTC().Format(time.RFC3339)
		view.CompletedAt = &value
	}

	return view
}
