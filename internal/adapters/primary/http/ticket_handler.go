package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// TicketHandler serves the non-streaming ticket point reads.
type TicketHandler struct {
	ticketRepo   ports.TicketRepository
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(ticketRepo ports.TicketRepository, errorHandler *ErrorHandler, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		ticketRepo:   ticketRepo,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes mounts the ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{ticketID}", h.HandleGetTicket)
}

// HandleGetTicket returns one ticket by id.
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseIDParam(r, "ticketID", apperrors.ErrTicketIDRequired)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ticket, err := h.ticketRepo.GetByID(r.Context(), ticketID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketView(ticket))
}

// parseIDParam extracts and validates a UUID path parameter.
func parseIDParam(r *http.Request, name string, missing error) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, apperrors.NewBadRequestError(missing, missing.Error())
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(apperrors.ErrInvalidID, name+" is not a valid UUID")
	}
	return id, nil
}
