package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// Scope is the subscription filter of a watch session: everything, one
// queue, or one ticket. The zero value is the global scope.
type Scope struct {
	queueID  *uuid.UUID
	ticketID *uuid.UUID
}

// GlobalScope subscribes to every change event.
func GlobalScope() Scope {
	return Scope{}
}

// QueueScope subscribes to one queue's state.
func QueueScope(queueID uuid.UUID) Scope {
	return Scope{queueID: &queueID}
}

// TicketScope subscribes to one specific ticket.
func TicketScope(ticketID uuid.UUID) Scope {
	return Scope{ticketID: &ticketID}
}

// QueueID returns the watched queue, if this is a queue scope.
func (s Scope) QueueID() (uuid.UUID, bool) {
	if s.queueID == nil {
		return uuid.Nil, false
	}
	return *s.queueID, true
}

// TicketID returns the watched ticket, if this is a ticket scope.
func (s Scope) TicketID() (uuid.UUID, bool) {
	if s.ticketID == nil {
		return uuid.Nil, false
	}
	return *s.ticketID, true
}

// IsGlobal reports whether the scope has no filter.
func (s Scope) IsGlobal() bool {
	return s.queueID == nil && s.ticketID == nil
}

// WatchSession is one open client stream. It is owned exclusively by the
// Manager: created on subscribe, destroyed when the connection closes.
// Registry buckets store session ids, never the session itself, so cleanup
// is removing an id from buckets rather than chasing references.
type WatchSession struct {
	ID       string
	UserID   string
	Scope    Scope
	Sink     ports.Sink
	OpenedAt time.Time
}
