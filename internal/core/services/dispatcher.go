package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/lorrc/queueing-backend/internal/core/ports"
	"github.com/lorrc/queueing-backend/internal/infrastructure/logging"
)

// Dispatcher fans a single incoming change event out to the registered
// handlers. Dispatch runs serially on one goroutine, which is what gives
// queue watchers causal ordering between a notification and the snapshot
// built for it. Handler failures are isolated: a panicking handler is
// recovered and logged and the remaining handlers still run.
type Dispatcher struct {
	dedup  *DedupCache
	logger *slog.Logger

	mu       sync.RWMutex
	handlers []ports.ChangeHandler
}

// NewDispatcher creates a dispatcher gated by the given dedup cache.
func NewDispatcher(dedup *DedupCache, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		dedup:  dedup,
		logger: logger.With("component", "dispatcher"),
	}
}

// Register adds a handler. Handlers are invoked in registration order.
func (d *Dispatcher) Register(handler ports.ChangeHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// Run consumes the change source's event channel until the context is
// cancelled or the channel closes. This MUST be run as a goroutine.
func (d *Dispatcher) Run(ctx context.Context, events <-chan domain.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d.Dispatch(ctx, event)
		}
	}
}

// Dispatch gates the event through the dedup cache and invokes every
// registered handler. Duplicate deliveries inside the suppression window
// are dropped silently.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.ChangeEvent) {
	if d.dedup.Seen(event.DedupKey()) {
		d.logger.Debug("duplicate notification suppressed",
			"entity_id", event.EntityID,
			"action", event.Action,
		)
		return
	}

	d.mu.RLock()
	handlers := make([]ports.ChangeHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.invoke(ctx, handler, event)
	}
}

// invoke runs one handler, containing any panic so the dispatch loop and
// the other handlers survive.
func (d *Dispatcher) invoke(ctx context.Context, handler ports.ChangeHandler, event domain.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogPanic(d.logger, r)
		}
	}()
	handler(ctx, event)
}
