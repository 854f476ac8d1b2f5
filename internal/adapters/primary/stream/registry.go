package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-memory bookkeeping of open watch sessions: the flat
// session set plus queue and ticket buckets of session ids. A session id
// appears in at most one queue bucket and at most one ticket bucket, and
// removing a session removes it from every bucket it appears in.
//
// The server is goroutine-per-connection, so all access goes through the
// registry's own mutex; the maps are never exposed.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*WatchSession
	queueWatch  map[uuid.UUID]map[string]struct{}
	ticketWatch map[uuid.UUID]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*WatchSession),
		queueWatch:  make(map[uuid.UUID]map[string]struct{}),
		ticketWatch: make(map[uuid.UUID]map[string]struct{}),
	}
}

// Add registers a session in the flat set and its scope bucket. Adding an
// id that is already present replaces the previous session's registration.
func (r *Registry) Add(session *WatchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		r.removeLocked(session.ID)
	}

	r.sessions[session.ID] = session

	if queueID, ok := session.Scope.QueueID(); ok {
		if r.queueWatch[queueID] == nil {
			r.queueWatch[queueID] = make(map[string]struct{})
		}
		r.queueWatch[queueID][session.ID] = struct{}{}
	}
	if ticketID, ok := session.Scope.TicketID(); ok {
		if r.ticketWatch[ticketID] == nil {
			r.ticketWatch[ticketID] = make(map[string]struct{})
		}
		r.ticketWatch[ticketID][session.ID] = struct{}{}
	}
}

// Remove deletes a session from every bucket. Removing an unknown id is a
// no-op; the removed session (if any) is returned so the caller can close
// its sink outside the lock.
func (r *Registry) Remove(id string) *WatchSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) *WatchSession {
	session, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)

	if queueID, ok := session.Scope.QueueID(); ok {
		if bucket, ok := r.queueWatch[queueID]; ok {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(r.queueWatch, queueID)
			}
		}
	}
	if ticketID, ok := session.Scope.TicketID(); ok {
		if bucket, ok := r.ticketWatch[ticketID]; ok {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(r.ticketWatch, ticketID)
			}
		}
	}

	return session
}

// Get looks up one session by id.
func (r *Registry) Get(id string) (*WatchSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// All returns a copy of every open session, for global broadcasts.
func (r *Registry) All() []*WatchSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*WatchSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// ForQueue returns the sessions scoped to the given queue.
func (r *Registry) ForQueue(queueID uuid.UUID) []*WatchSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bucketSessionsLocked(r.queueWatch[queueID])
}

// ForTicket returns the sessions watching the given ticket.
func (r *Registry) ForTicket(ticketID uuid.UUID) []*WatchSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bucketSessionsLocked(r.ticketWatch[ticketID])
}

// HasQueueWatchers reports whether any session is scoped to the queue,
// without copying. Used to skip snapshot rebuilds nobody would receive.
func (r *Registry) HasQueueWatchers(queueID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queueWatch[queueID]) > 0
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// QueueWatcherCounts returns watcher counts per queue, for introspection.
func (r *Registry) QueueWatcherCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.queueWatch))
	for queueID, bucket := range r.queueWatch {
		counts[queueID.String()] = len(bucket)
	}
	return counts
}

// TicketWatcherCounts returns watcher counts per ticket, for introspection.
func (r *Registry) TicketWatcherCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.ticketWatch))
	for ticketID, bucket := range r.ticketWatch {
		counts[ticketID.String()] = len(bucket)
	}
	return counts
}

func (r *Registry) bucketSessionsLocked(bucket map[string]struct{}) []*WatchSession {
	if len(bucket) == 0 {
		return nil
	}
	sessions := make([]*WatchSession, 0, len(bucket))
	for id := range bucket {
		if session, ok := r.sessions[id]; ok {
			sessions = append(sessions, session)
		}
	}
	return sessions
}
