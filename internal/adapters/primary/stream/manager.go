package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// Manager accepts client subscriptions, owns the watch registry and turns
// dispatched change events into pushes to the matching sinks. It is the
// only component the HTTP layer talks to.
type Manager struct {
	registry  *Registry
	snapshots ports.SnapshotBuilder
	logger    *slog.Logger
}

// OpenSessionParams carries the subscription request of one client.
type OpenSessionParams struct {
	// WatchID is the client-supplied idempotent session id. Generated
	// when empty.
	WatchID string
	// UserID is informational only.
	UserID string
	Scope  Scope
	Sink   ports.Sink
}

// Stats is the introspection view of the fan-out subsystem.
type Stats struct {
	OpenSessions   int            `json:"openSessions"`
	QueueWatchers  map[string]int `json:"queueWatchers"`
	TicketWatchers map[string]int `json:"ticketWatchers"`
}

// NewManager creates a new stream session manager.
func NewManager(snapshots ports.SnapshotBuilder, logger *slog.Logger) *Manager {
	return &Manager{
		registry:  NewRegistry(),
		snapshots: snapshots,
		logger:    logger.With("component", "stream_manager"),
	}
}

// OpenSession registers a new watch session and pushes its initial events.
// A queue-scoped session receives one queue_state push before OpenSession
// returns, so the client never observes a window between connecting and
// receiving state. On any failure nothing stays registered.
func (m *Manager) OpenSession(ctx context.Context, params OpenSessionParams) (*WatchSession, error) {
	watchID := params.WatchID
	if watchID == "" {
		watchID = uuid.NewString()
	}

	// Validate the queue before any stream bytes: an unknown queue must
	// fail the subscription, not silently open an empty stream.
	var initial *domain.QueueSnapshot
	if queueID, ok := params.Scope.QueueID(); ok {
		snapshot, err := m.snapshots.BuildQueueSnapshot(ctx, queueID)
		if err != nil {
			return nil, err
		}
		initial = snapshot
	}

	session := &WatchSession{
		ID:       watchID,
		UserID:   params.UserID,
		Scope:    params.Scope,
		Sink:     params.Sink,
		OpenedAt: time.Now().UTC(),
	}

	opened := domain.NewStreamEvent(domain.EventStreamOpened)
	opened.WatchID = watchID
	if queueID, ok := params.Scope.QueueID(); ok {
		opened.QueueID = queueID.String()
	}
	if ticketID, ok := params.Scope.TicketID(); ok {
		opened.TicketID = ticketID.String()
	}
	if err := session.Sink.Send(opened); err != nil {
		_ = session.Sink.Close()
		return nil, err
	}

	// Register before the state push is built: a change landing while the
	// snapshot is read is then either inside the snapshot or broadcast to
	// the session, nothing falls between the two.
	m.registry.Add(session)

	if queueID, ok := params.Scope.QueueID(); ok {
		snapshot, err := m.snapshots.BuildQueueSnapshot(ctx, queueID)
		if err != nil {
			// The validation read is moments old; push it instead of
			// opening a stream with no state.
			m.logger.Warn("initial state rebuild failed, pushing validation read",
				"watch_id", watchID,
				"queue_id", queueID.String(),
				"error", err,
			)
			snapshot = initial
		}
		if err := session.Sink.Send(domain.NewQueueStateEvent(watchID, snapshot)); err != nil {
			m.evict(session, err)
			return nil, err
		}
	}

	if ticketID, ok := params.Scope.TicketID(); ok {
		started := domain.NewStreamEvent(domain.EventTicketWatchStarted)
		started.WatchID = watchID
		started.TicketID = ticketID.String()
		if err := session.Sink.Send(started); err != nil {
			m.evict(session, err)
			return nil, err
		}
	}

	m.logger.Info("watch session opened",
		"watch_id", watchID,
		"global", params.Scope.IsGlobal(),
		"open_sessions", m.registry.Len(),
	)
	return session, nil
}

// CloseSession removes the session from every bucket and closes its sink.
// Idempotent: closing twice, or closing an id never opened, is a no-op.
func (m *Manager) CloseSession(id string) {
	session := m.registry.Remove(id)
	if session == nil {
		return
	}
	_ = session.Sink.Close()
	m.logger.Info("watch session closed",
		"watch_id", id,
		"open_sessions", m.registry.Len(),
	)
}

// CloseAll tears down every open session. Used on shutdown.
func (m *Manager) CloseAll() {
	for _, session := range m.registry.All() {
		m.CloseSession(session.ID)
	}
}

// HandleChange is registered with the dispatcher. One deduplicated change
// event becomes: a global notification to every open session, a snapshot
// push to the changed queue's watchers (built only when that queue has
// watchers), and a ticket notification to watchers of that exact ticket.
func (m *Manager) HandleChange(ctx context.Context, change domain.ChangeEvent) {
	m.BroadcastGlobal(domain.NewChangeNotification(domain.EventTicketNotification, change))

	if queueID, err := uuid.Parse(change.ParentID); err == nil && m.registry.HasQueueWatchers(queueID) {
		snapshot, err := m.snapshots.BuildQueueSnapshot(ctx, queueID)
		if err != nil {
			m.logger.Error("snapshot rebuild failed, queue watchers not updated",
				"queue_id", change.ParentID,
				"error", err,
			)
		} else {
			m.BroadcastToQueue(queueID, domain.NewChangeNotification(domain.EventQueueTicket, change), snapshot)
		}
	}

	if ticketID, err := uuid.Parse(change.EntityID); err == nil {
		m.BroadcastToTicket(ticketID, domain.NewChangeNotification(domain.EventTicketSpecific, change))
	}
}

// BroadcastGlobal pushes an event to every open session regardless of scope.
func (m *Manager) BroadcastGlobal(event domain.StreamEvent) {
	m.push(m.registry.All(), event)
}

// BroadcastToQueue pushes the raw event plus the fresh snapshot to every
// session scoped to the queue. A dead sink is evicted as a side effect and
// the broadcast continues to the remaining sessions.
func (m *Manager) BroadcastToQueue(queueID uuid.UUID, event domain.StreamEvent, snapshot *domain.QueueSnapshot) {
	sessions := m.registry.ForQueue(queueID)
	for _, session := range sessions {
		scoped := event
		scoped.WatchID = session.ID
		if err := session.Sink.Send(scoped); err != nil {
			m.evict(session, err)
			continue
		}
		if err := session.Sink.Send(domain.NewQueueStateEvent(session.ID, snapshot)); err != nil {
			m.evict(session, err)
		}
	}
}

// BroadcastToTicket pushes an event to every session watching the ticket.
func (m *Manager) BroadcastToTicket(ticketID uuid.UUID, event domain.StreamEvent) {
	m.push(m.registry.ForTicket(ticketID), event)
}

// Stats reports open session and watcher counts.
func (m *Manager) Stats() Stats {
	return Stats{
		OpenSessions:   m.registry.Len(),
		QueueWatchers:  m.registry.QueueWatcherCounts(),
		TicketWatchers: m.registry.TicketWatcherCounts(),
	}
}

func (m *Manager) push(sessions []*WatchSession, event domain.StreamEvent) {
	for _, session := range sessions {
		scoped := event
		scoped.WatchID = session.ID
		if err := session.Sink.Send(scoped); err != nil {
			m.evict(session, err)
		}
	}
}

// evict drops a session whose sink failed. A failed push means the
// connection is already gone; this is cancellation, not an error to retry.
func (m *Manager) evict(session *WatchSession, err error) {
	if removed := m.registry.Remove(session.ID); removed != nil {
		_ = removed.Sink.Close()
	}
	m.logger.Warn("sink write failed, session evicted",
		"watch_id", session.ID,
		"error", err,
	)
}
