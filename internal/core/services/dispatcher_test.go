package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/lorrc/queueing-backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func changeEvent(entityID string, at time.Time) domain.ChangeEvent {
	return domain.ChangeEvent{
		EntityID:   entityID,
		Action:     domain.ActionUpdated,
		ParentID:   "9f1c8b3a-0000-0000-0000-000000000001",
		OccurredAt: at,
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("invokes handlers in registration order", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		var order []string
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			order = append(order, "first")
		})
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			order = append(order, "second")
		})

		dispatcher.Dispatch(ctx, changeEvent("t1", at))

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("duplicate delivery triggers exactly one fan-out", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		var calls int
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			calls++
		})

		event := changeEvent("t1", at)
		dispatcher.Dispatch(ctx, event)
		dispatcher.Dispatch(ctx, event)
		dispatcher.Dispatch(ctx, event)

		assert.Equal(t, 1, calls)
	})

	t.Run("same ticket at a different instant is a distinct change", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		var calls int
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			calls++
		})

		dispatcher.Dispatch(ctx, changeEvent("t1", at))
		dispatcher.Dispatch(ctx, changeEvent("t1", at.Add(time.Millisecond)))

		assert.Equal(t, 2, calls)
	})

	t.Run("panicking handler does not take down the others", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		var survived bool
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			panic("handler bug")
		})
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			survived = true
		})

		require.NotPanics(t, func() {
			dispatcher.Dispatch(ctx, changeEvent("t1", at))
		})
		assert.True(t, survived)
	})
}

func TestDispatcher_Run(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("drains the channel until it closes", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		received := make(chan string, 3)
		dispatcher.Register(func(ctx context.Context, e domain.ChangeEvent) {
			received <- e.EntityID
		})

		events := make(chan domain.ChangeEvent, 3)
		events <- changeEvent("t1", at)
		events <- changeEvent("t2", at)
		events <- changeEvent("t3", at)
		close(events)

		done := make(chan struct{})
		go func() {
			dispatcher.Run(context.Background(), events)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("dispatcher did not stop after channel close")
		}

		assert.Equal(t, 3, len(received))
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		dispatcher := services.NewDispatcher(services.NewDedupCache(time.Second, 5*time.Second), testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		events := make(chan domain.ChangeEvent)

		done := make(chan struct{})
		go func() {
			dispatcher.Run(ctx, events)
			close(done)
		}()

		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("dispatcher did not stop after cancellation")
		}
	})
}
