package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/lorrc/queueing-backend/internal/core/domain"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

// SSESink writes server-sent events to one HTTP response. Writes are
// serialized with a mutex: broadcasts and the keep-alive ticker reach the
// sink from different goroutines.
type SSESink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
	closed  bool
}

var _ ports.Sink = (*SSESink)(nil)

// NewSSESink wraps the response writer of one streaming request. Fails
// when the writer cannot flush, since buffered SSE is indistinguishable
// from a hung connection for the client.
//
// The stream headers go out on the first write, not here: a subscription
// that fails validation must still be able to answer with a JSON error.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &SSESink{w: w, flusher: flusher}, nil
}

// Send writes one event as a `data: <JSON>` message and flushes.
func (s *SSESink) Send(event domain.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.write(fmt.Sprintf("data: %s\n\n", payload))
}

// KeepAlive writes an SSE comment line to defeat idle-connection timeouts
// in intermediating proxies.
func (s *SSESink) KeepAlive() error {
	return s.write(": keep-alive\n\n")
}

// Close marks the sink closed. The connection itself is owned by the HTTP
// handler and ends when the handler returns.
func (s *SSESink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *SSESink) write(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrSinkClosed
	}
	if !s.started {
		header := s.w.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		// Tells nginx-style proxies not to buffer the stream.
		header.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := fmt.Fprint(s.w, message); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}
