package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	stdhttp "net/http"

	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	"github.com/lorrc/queueing-backend/internal/config"
	"github.com/lorrc/queueing-backend/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSStreamHandler_RejectsMalformedScope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := stream.NewManager(mocks.NewMockSnapshotBuilder(), logger)
	handler := NewWSStreamHandler(manager, &config.Config{}, NewErrorHandler(logger), logger)

	// Scope validation happens before the upgrade, so the rejection is a
	// plain HTTP response in the same JSON shape the SSE endpoint uses.
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/stream/ws?queueId=not-a-uuid", nil))

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "queueId is not a valid UUID", resp.Message)
	assert.Zero(t, manager.Stats().OpenSessions)
}
