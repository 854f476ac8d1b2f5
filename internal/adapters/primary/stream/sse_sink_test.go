package stream_test

import (
	"net/http/httptest"
	"testing"

	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSESink(t *testing.T) {
	t.Run("no headers written before the first event", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, err := stream.NewSSESink(rec)
		require.NoError(t, err)

		assert.Empty(t, rec.Header().Get("Content-Type"))
	})

	t.Run("first send writes stream headers and data frame", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sink, err := stream.NewSSESink(rec)
		require.NoError(t, err)

		event := domain.NewStreamEvent(domain.EventStreamOpened)
		event.WatchID = "watch-1"
		require.NoError(t, sink.Send(event))

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
		assert.True(t, rec.Flushed)

		body := rec.Body.String()
		assert.Contains(t, body, "data: {")
		assert.Contains(t, body, `"event":"stream_opened"`)
		assert.Contains(t, body, `"watchId":"watch-1"`)
		assert.Contains(t, body, "\n\n")
	})

	t.Run("keep-alive is a comment line", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sink, err := stream.NewSSESink(rec)
		require.NoError(t, err)

		require.NoError(t, sink.KeepAlive())
		assert.Equal(t, ": keep-alive\n\n", rec.Body.String())
	})

	t.Run("send after close reports the sink closed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sink, err := stream.NewSSESink(rec)
		require.NoError(t, err)

		require.NoError(t, sink.Close())

		err = sink.Send(domain.NewStreamEvent(domain.EventTicketNotification))
		assert.ErrorIs(t, err, apperrors.ErrSinkClosed)
		assert.Empty(t, rec.Body.String())
	})
}
