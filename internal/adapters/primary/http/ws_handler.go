package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	"github.com/lorrc/queueing-backend/internal/config"
)

const wsPongWait = 60 * time.Second

// WSStreamHandler serves the WebSocket variant of the watch stream. The
// session semantics are identical to the SSE endpoint; only the transport
// differs.
type WSStreamHandler struct {
	manager      *stream.Manager
	upgrader     websocket.Upgrader
	cfg          *config.Config
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewWSStreamHandler creates a new WebSocket stream handler.
func NewWSStreamHandler(manager *stream.Manager, cfg *config.Config, errorHandler *ErrorHandler, logger *slog.Logger) *WSStreamHandler {
	handler := &WSStreamHandler{
		manager:      manager,
		cfg:          cfg,
		errorHandler: errorHandler,
		logger:       logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.Stream.WSReadBufferSize,
		WriteBufferSize: cfg.Stream.WSWriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WSStreamHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.Stream.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// ServeHTTP upgrades the connection and runs the watch session until the
// peer disconnects.
func (h *WSStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	// Rejections before the upgrade carry the same JSON error shape as the
	// SSE endpoint.
	scope, err := scopeFromQuery(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			"request_id", requestID,
			"error", err,
		)
		return
	}

	sink := stream.NewWSSink(conn)

	session, err := h.manager.OpenSession(r.Context(), stream.OpenSessionParams{
		WatchID: r.URL.Query().Get("watchId"),
		UserID:  r.URL.Query().Get("userId"),
		Scope:   scope,
		Sink:    sink,
	})
	if err != nil {
		h.logger.Warn("websocket watch session rejected",
			"request_id", requestID,
			"error", err,
		)
		_ = sink.Close()
		return
	}
	defer h.manager.CloseSession(session.ID)

	// Read pump: the client sends nothing meaningful, but reading is how
	// disconnects are detected and pongs keep the deadline fresh.
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.cfg.Stream.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readDone:
			return
		case <-ticker.C:
			if err := sink.KeepAlive(); err != nil {
				return
			}
		}
	}
}
