package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// ListenerConfig holds the change listener configuration.
type ListenerConfig struct {
	// Channel is the NOTIFY channel the ticket trigger publishes on.
	Channel string
	// ReconnectDelay is the pause before the first reconnect attempt
	// after the connection drops.
	ReconnectDelay time.Duration
	// ReconnectFallback is the longer pause after a reconnect attempt
	// itself fails.
	ReconnectFallback time.Duration
	// BufferSize bounds the event channel consumed by the dispatcher.
	BufferSize int
}

// DefaultListenerConfig returns the production defaults.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		Channel:           "ticket_changes",
		ReconnectDelay:    5 * time.Second,
		ReconnectFallback: 30 * time.Second,
		BufferSize:        256,
	}
}

// ChangeListener owns one persistent connection on the store's NOTIFY
// channel and decodes raw payloads into typed change events. A lost
// connection moves through Disconnected -> Reconnecting -> Connected; a
// failed initial connect leaves the service in degraded mode (streams get
// no live updates) instead of aborting startup.
type ChangeListener struct {
	pool   *pgxpool.Pool
	cfg    ListenerConfig
	logger *slog.Logger
	events chan domain.ChangeEvent

	mu    sync.RWMutex
	state ports.ChangeSourceState

	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.ChangeSource = (*ChangeListener)(nil)

// notifyPayload is the raw JSON shape emitted by the ticket-table trigger.
type notifyPayload struct {
	TicketID   string `json:"ticket_id"`
	QueueID    string `json:"queue_id"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
}

// NewChangeListener creates a listener on the given pool.
func NewChangeListener(pool *pgxpool.Pool, cfg ListenerConfig, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{
		pool:   pool,
		cfg:    cfg,
		logger: logger.With("component", "change_listener"),
		events: make(chan domain.ChangeEvent, cfg.BufferSize),
		state:  ports.SourceDisconnected,
		done:   make(chan struct{}),
	}
}

// Events is the bounded channel of decoded change events.
func (l *ChangeListener) Events() <-chan domain.ChangeEvent {
	return l.events
}

// State reports the connection state for introspection.
func (l *ChangeListener) State() ports.ChangeSourceState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Start begins receiving in a background goroutine. It never fails the
// caller: connect errors are logged and retried.
func (l *ChangeListener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
}

// Close stops the receive loop and waits for it to exit.
func (l *ChangeListener) Close() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
}

func (l *ChangeListener) run(ctx context.Context) {
	defer close(l.done)
	defer l.setState(ports.SourceDisconnected)

	for {
		connected, err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}

		// A dropped established connection retries after the base delay;
		// a connect attempt that never got as far as LISTEN waits for the
		// longer fallback before trying again.
		var delay time.Duration
		if connected {
			l.setState(ports.SourceDisconnected)
			l.logger.Warn("notification connection lost", "error", err)
			delay = l.cfg.ReconnectDelay
		} else {
			l.setState(ports.SourceDisconnected)
			l.logger.Warn("connect attempt failed, streams running degraded", "error", err)
			delay = l.cfg.ReconnectFallback
		}

		if !sleepCtx(ctx, delay) {
			return
		}
		l.setState(ports.SourceReconnecting)
	}
}

// listen acquires a dedicated connection, subscribes to the channel and
// blocks receiving notifications until the connection or context dies.
// The boolean reports whether the subscription was established.
func (l *ChangeListener) listen(ctx context.Context) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.cfg.Channel); err != nil {
		return false, err
	}

	l.setState(ports.SourceConnected)
	l.logger.Info("listening for ticket changes", "channel", l.cfg.Channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		l.handlePayload(notification.Payload)
	}
}

// handlePayload decodes one raw payload and forwards it exactly once. A
// payload that fails to parse is logged and dropped without affecting the
// connection's liveness.
func (l *ChangeListener) handlePayload(payload string) {
	event, err := parsePayload(payload)
	if err != nil {
		l.logger.Warn("dropping malformed notification payload",
			"payload", payload,
			"error", err,
		)
		return
	}

	select {
	case l.events <- event:
	default:
		l.logger.Warn("event buffer full, dropping change event",
			"entity_id", event.EntityID,
			"action", event.Action,
		)
	}
}

func parsePayload(payload string) (domain.ChangeEvent, error) {
	var raw notifyPayload
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return domain.ChangeEvent{}, err
	}

	event := domain.ChangeEvent{
		EntityID: raw.TicketID,
		ParentID: raw.QueueID,
		Action:   mapAction(raw.Action),
	}
	if !event.Action.IsValid() {
		return domain.ChangeEvent{}, errUnknownAction(raw.Action)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, raw.OccurredAt)
	if err != nil {
		return domain.ChangeEvent{}, err
	}
	event.OccurredAt = occurredAt.UTC()

	return event, nil
}

// mapAction translates trigger operations (TG_OP) to change actions.
func mapAction(op string) domain.ChangeAction {
	switch op {
	case "INSERT":
		return domain.ActionCreated
	case "UPDATE":
		return domain.ActionUpdated
	case "DELETE":
		return domain.ActionDeleted
	}
	return domain.ChangeAction(op)
}

func (l *ChangeListener) setState(state ports.ChangeSourceState) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

// sleepCtx waits for the delay, returning false when the context ends first.
func sleepCtx(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type errUnknownAction string

func (e errUnknownAction) Error() string {
	return "unknown change action: " + string(e)
}
