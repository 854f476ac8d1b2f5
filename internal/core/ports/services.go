package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
)

// ChangeSourceState tracks the health of the upstream notification
// connection for introspection.
type ChangeSourceState string

const (
	SourceConnected    ChangeSourceState = "connected"
	SourceDisconnected ChangeSourceState = "disconnected"
	SourceReconnecting ChangeSourceState = "reconnecting"
)

// ChangeSource owns the persistent connection to the store's notification
// channel and produces normalized change events.
type ChangeSource interface {
	// Start establishes the upstream connection and begins receiving.
	// A failed initial connect is non-fatal: the source logs, keeps
	// retrying in the background and the caller continues in degraded mode.
	Start(ctx context.Context)
	// Events is the bounded channel the dispatcher consumes.
	Events() <-chan domain.ChangeEvent
	State() ChangeSourceState
	Close()
}

// SnapshotBuilder reconstructs a consistent view of a queue's state on
// demand by composing point queries.
type SnapshotBuilder interface {
	BuildQueueSnapshot(ctx context.Context, queueID uuid.UUID) (*domain.QueueSnapshot, error)
}

// ChangeHandler is a dispatcher callback. Handlers run serially on the
// dispatch goroutine; a panicking handler is recovered and logged without
// affecting the others.
type ChangeHandler func(ctx context.Context, event domain.ChangeEvent)

// Sink is an abstract write destination for one open client connection.
// Implementations must be safe for concurrent use: broadcasts and the
// keep-alive ticker write from different goroutines.
type Sink interface {
	// Send pushes one formatted event. A returned error means the
	// underlying connection is gone and the session must be evicted.
	Send(event domain.StreamEvent) error
	// KeepAlive emits a transport-level heartbeat (SSE comment, WS ping).
	KeepAlive() error
	Close() error
}
