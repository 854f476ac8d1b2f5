package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// QueueHandler serves queue point reads: the ticket list and the
// aggregated queue state document.
type QueueHandler struct {
	snapshots    ports.SnapshotBuilder
	ticketRepo   ports.TicketRepository
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(
	snapshots ports.SnapshotBuilder,
	ticketRepo ports.TicketRepository,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *QueueHandler {
	return &QueueHandler{
		snapshots:    snapshots,
		ticketRepo:   ticketRepo,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes mounts the queue endpoints.
func (h *QueueHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{queueID}/tickets", h.HandleListTickets)
	r.Get("/{queueID}/state", h.HandleGetState)
}

// HandleListTickets returns the queue's tickets, optionally filtered by
// status via the `status` query parameter.
func (h *QueueHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseIDParam(r, "queueID", apperrors.ErrQueueIDRequired)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	var status *domain.TicketStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		candidate := domain.TicketStatus(raw)
		if !candidate.IsValid() {
			h.errorHandler.Handle(w, r, apperrors.ErrInvalidStatus)
			return
		}
		status = &candidate
	}

	tickets, err := h.ticketRepo.ListByQueue(r.Context(), queueID, status)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	views := make([]domain.TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		views = append(views, domain.NewTicketView(ticket))
	}
	WriteList(w, views)
}

// HandleGetState returns the aggregated queue state (current/next/recent
// tickets plus statistics) as a single document.
func (h *QueueHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	queueID, err := parseIDParam(r, "queueID", apperrors.ErrQueueIDRequired)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	snapshot, err := h.snapshots.BuildQueueSnapshot(r.Context(), queueID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}
