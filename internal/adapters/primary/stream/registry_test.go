package stream_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	"github.com/lorrc/queueing-backend/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string, scope stream.Scope) *stream.WatchSession {
	return &stream.WatchSession{
		ID:    id,
		Scope: scope,
		Sink:  mocks.NewMockSink(),
	}
}

func TestRegistry_AddRemove(t *testing.T) {
	queueID := uuid.New()
	ticketID := uuid.New()

	t.Run("add registers in the matching bucket", func(t *testing.T) {
		registry := stream.NewRegistry()
		registry.Add(newSession("global", stream.GlobalScope()))
		registry.Add(newSession("queue", stream.QueueScope(queueID)))
		registry.Add(newSession("ticket", stream.TicketScope(ticketID)))

		assert.Equal(t, 3, registry.Len())
		assert.Len(t, registry.ForQueue(queueID), 1)
		assert.Len(t, registry.ForTicket(ticketID), 1)
		assert.True(t, registry.HasQueueWatchers(queueID))
	})

	t.Run("remove clears every bucket", func(t *testing.T) {
		registry := stream.NewRegistry()
		registry.Add(newSession("queue", stream.QueueScope(queueID)))

		removed := registry.Remove("queue")

		require.NotNil(t, removed)
		assert.Equal(t, 0, registry.Len())
		assert.Empty(t, registry.ForQueue(queueID))
		assert.False(t, registry.HasQueueWatchers(queueID))
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		registry := stream.NewRegistry()
		registry.Add(newSession("queue", stream.QueueScope(queueID)))

		require.NotNil(t, registry.Remove("queue"))
		assert.Nil(t, registry.Remove("queue"))
		assert.Nil(t, registry.Remove("never-opened"))
	})

	t.Run("re-adding an id replaces the previous registration", func(t *testing.T) {
		otherQueue := uuid.New()
		registry := stream.NewRegistry()
		registry.Add(newSession("watch-1", stream.QueueScope(queueID)))
		registry.Add(newSession("watch-1", stream.QueueScope(otherQueue)))

		assert.Equal(t, 1, registry.Len())
		assert.Empty(t, registry.ForQueue(queueID), "stale bucket entry survived the replace")
		assert.Len(t, registry.ForQueue(otherQueue), 1)
	})

	t.Run("scope filters are disjoint", func(t *testing.T) {
		otherQueue := uuid.New()
		registry := stream.NewRegistry()
		registry.Add(newSession("a", stream.QueueScope(queueID)))
		registry.Add(newSession("b", stream.QueueScope(otherQueue)))

		sessions := registry.ForQueue(queueID)
		require.Len(t, sessions, 1)
		assert.Equal(t, "a", sessions[0].ID)
	})

	t.Run("watcher counts track buckets", func(t *testing.T) {
		registry := stream.NewRegistry()
		registry.Add(newSession("a", stream.QueueScope(queueID)))
		registry.Add(newSession("b", stream.QueueScope(queueID)))
		registry.Add(newSession("c", stream.TicketScope(ticketID)))

		assert.Equal(t, map[string]int{queueID.String(): 2}, registry.QueueWatcherCounts())
		assert.Equal(t, map[string]int{ticketID.String(): 1}, registry.TicketWatcherCounts())

		registry.Remove("a")
		registry.Remove("b")
		assert.Empty(t, registry.QueueWatcherCounts())
	})
}

func TestScope(t *testing.T) {
	queueID := uuid.New()
	ticketID := uuid.New()

	t.Run("global", func(t *testing.T) {
		scope := stream.GlobalScope()
		assert.True(t, scope.IsGlobal())
		_, ok := scope.QueueID()
		assert.False(t, ok)
		_, ok = scope.TicketID()
		assert.False(t, ok)
	})

	t.Run("queue", func(t *testing.T) {
		scope := stream.QueueScope(queueID)
		assert.False(t, scope.IsGlobal())
		got, ok := scope.QueueID()
		require.True(t, ok)
		assert.Equal(t, queueID, got)
	})

	t.Run("ticket", func(t *testing.T) {
		scope := stream.TicketScope(ticketID)
		assert.False(t, scope.IsGlobal())
		got, ok := scope.TicketID()
		require.True(t, ok)
		assert.Equal(t, ticketID, got)
	})
}
