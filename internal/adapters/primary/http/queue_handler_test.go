package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueueRouter(snapshots *mocks.MockSnapshotBuilder, tickets *mocks.MockTicketRepository) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	handler := NewQueueHandler(snapshots, tickets, errorHandler, logger)

	router := chi.NewRouter()
	router.Route("/queues", handler.RegisterRoutes)
	return router
}

func TestQueueHandler_HandleGetState(t *testing.T) {
	queueID := uuid.New()

	t.Run("returns the snapshot document", func(t *testing.T) {
		snapshots := mocks.NewMockSnapshotBuilder()
		snapshots.On("BuildQueueSnapshot", mock.Anything, queueID).Return(&domain.QueueSnapshot{
			QueueID:     queueID.String(),
			QueueName:   "Front Desk",
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		}, nil)
		router := newQueueRouter(snapshots, mocks.NewMockTicketRepository())

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/queues/"+queueID.String()+"/state", nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var snapshot domain.QueueSnapshot
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))
		assert.Equal(t, queueID.String(), snapshot.QueueID)
		assert.Equal(t, "Front Desk", snapshot.QueueName)
	})

	t.Run("unknown queue is 404", func(t *testing.T) {
		snapshots := mocks.NewMockSnapshotBuilder()
		snapshots.On("BuildQueueSnapshot", mock.Anything, queueID).Return(nil, apperrors.ErrQueueNotFound)
		router := newQueueRouter(snapshots, mocks.NewMockTicketRepository())

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/queues/"+queueID.String()+"/state", nil))

		require.Equal(t, stdhttp.StatusNotFound, recorder.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp.Error)
		assert.Equal(t, "Queue not found", resp.Message)
	})

	t.Run("malformed queue id is 400", func(t *testing.T) {
		router := newQueueRouter(mocks.NewMockSnapshotBuilder(), mocks.NewMockTicketRepository())

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/queues/not-a-uuid/state", nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "bad_request", resp.Error)
	})
}

func TestQueueHandler_HandleListTickets(t *testing.T) {
	queueID := uuid.New()

	ticket := &domain.Ticket{
		ID:        uuid.New(),
		QueueID:   queueID,
		Number:    1,
		Status:    domain.StatusWaiting,
		CreatedAt: time.Now().UTC(),
	}

	t.Run("lists all tickets", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		tickets.On("ListByQueue", mock.Anything, queueID, (*domain.TicketStatus)(nil)).
			Return([]*domain.Ticket{ticket}, nil)
		router := newQueueRouter(mocks.NewMockSnapshotBuilder(), tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/queues/"+queueID.String()+"/tickets", nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var resp ListResponse[domain.TicketView]
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, ticket.ID.String(), resp.Data[0].ID)
	})

	t.Run("passes the status filter through", func(t *testing.T) {
		waiting := domain.StatusWaiting
		tickets := mocks.NewMockTicketRepository()
		tickets.On("ListByQueue", mock.Anything, queueID, &waiting).
			Return([]*domain.Ticket{ticket}, nil)
		router := newQueueRouter(mocks.NewMockSnapshotBuilder(), tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet,
			"/queues/"+queueID.String()+"/tickets?status=WAITING", nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		tickets.AssertExpectations(t)
	})

	t.Run("unknown status is 400", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		router := newQueueRouter(mocks.NewMockSnapshotBuilder(), tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet,
			"/queues/"+queueID.String()+"/tickets?status=SHOUTING", nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		tickets.AssertNotCalled(t, "ListByQueue")
	})

	t.Run("empty queue yields an empty list, not null", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		tickets.On("ListByQueue", mock.Anything, queueID, (*domain.TicketStatus)(nil)).
			Return([]*domain.Ticket{}, nil)
		router := newQueueRouter(mocks.NewMockSnapshotBuilder(), tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/queues/"+queueID.String()+"/tickets", nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"data":[]`)
	})
}

func TestTicketHandler_HandleGetTicket(t *testing.T) {
	ticketID := uuid.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newRouter := func(tickets *mocks.MockTicketRepository) *chi.Mux {
		handler := NewTicketHandler(tickets, NewErrorHandler(logger), logger)
		router := chi.NewRouter()
		router.Route("/tickets", handler.RegisterRoutes)
		return router
	}

	t.Run("returns the ticket", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		tickets.On("GetByID", mock.Anything, ticketID).Return(&domain.Ticket{
			ID:        ticketID,
			QueueID:   uuid.New(),
			Number:    12,
			Status:    domain.StatusWaiting,
			CreatedAt: time.Now().UTC(),
		}, nil)
		router := newRouter(tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/tickets/"+ticketID.String(), nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var view domain.TicketView
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
		assert.Equal(t, ticketID.String(), view.ID)
		assert.Equal(t, 12, view.Number)
	})

	t.Run("unknown ticket is 404", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		tickets.On("GetByID", mock.Anything, ticketID).Return(nil, apperrors.ErrTicketNotFound)
		router := newRouter(tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/tickets/"+ticketID.String(), nil))

		require.Equal(t, stdhttp.StatusNotFound, recorder.Code)
	})

	t.Run("unreachable store is 503", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository()
		tickets.On("GetByID", mock.Anything, ticketID).Return(nil,
			fmt.Errorf("%w: dial tcp 127.0.0.1:5432: connect: connection refused",
				apperrors.ErrChangeSourceUnavailable))
		router := newRouter(tickets)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/tickets/"+ticketID.String(), nil))

		require.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "service_unavailable", resp.Error)
		assert.Equal(t, "Change notification source is unavailable", resp.Message)
	})
}
