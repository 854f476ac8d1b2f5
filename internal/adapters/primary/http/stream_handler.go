package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
	"github.com/lorrc/queueing-backend/internal/infrastructure/logging"
)

// StreamHandler serves the server-sent event stream and the subsystem
// introspection endpoint.
type StreamHandler struct {
	manager           *stream.Manager
	source            ports.ChangeSource
	keepAliveInterval time.Duration
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	manager *stream.Manager,
	source ports.ChangeSource,
	keepAliveInterval time.Duration,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *StreamHandler {
	return &StreamHandler{
		manager:           manager,
		source:            source,
		keepAliveInterval: keepAliveInterval,
		errorHandler:      errorHandler,
		logger:            logger,
	}
}

// StatsResponse is the introspection document.
type StatsResponse struct {
	stream.Stats
	Upstream string `json:"upstream"`
}

// HandleStream opens one SSE watch session. Scope comes from the query
// string: `ticketId` watches one ticket, `queueId` one queue, neither
// subscribes globally. `watchId` lets clients resubscribe idempotently;
// `userId` and `status` are informational.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromQuery(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	sink, err := stream.NewSSESink(w)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	session, err := h.manager.OpenSession(r.Context(), stream.OpenSessionParams{
		WatchID: r.URL.Query().Get("watchId"),
		UserID:  r.URL.Query().Get("userId"),
		Scope:   scope,
		Sink:    sink,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	defer h.manager.CloseSession(session.ID)

	ctx := logging.WithWatchID(r.Context(), session.ID)

	// Hold the connection open: push keep-alive comments until the client
	// goes away or a write fails (which means the same thing).
	ticker := time.NewTicker(h.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sink.KeepAlive(); err != nil {
				h.logger.DebugContext(ctx, "keep-alive write failed, closing stream", "error", err)
				return
			}
		}
	}
}

// HandleStats reports open sessions, watcher counts and upstream health.
func (h *StreamHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, StatsResponse{
		Stats:    h.manager.Stats(),
		Upstream: string(h.source.State()),
	})
}

// scopeFromQuery resolves the subscription filter. A ticketId wins over a
// queueId; neither means a global subscription.
func scopeFromQuery(r *http.Request) (stream.Scope, error) {
	query := r.URL.Query()

	if raw := query.Get("ticketId"); raw != "" {
		ticketID, err := uuid.Parse(raw)
		if err != nil {
			return stream.Scope{}, apperrors.NewBadRequestError(apperrors.ErrInvalidID, "ticketId is not a valid UUID")
		}
		return stream.TicketScope(ticketID), nil
	}

	if raw := query.Get("queueId"); raw != "" {
		queueID, err := uuid.Parse(raw)
		if err != nil {
			return stream.Scope{}, apperrors.NewBadRequestError(apperrors.ErrInvalidID, "queueId is not a valid UUID")
		}
		return stream.QueueScope(queueID), nil
	}

	return stream.GlobalScope(), nil
}
