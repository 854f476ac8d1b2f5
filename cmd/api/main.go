package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/queueing-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/queueing-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/queueing-backend/internal/adapters/primary/stream"
	"github.com/lorrc/queueing-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/queueing-backend/internal/config"
	"github.com/lorrc/queueing-backend/internal/core/services"
	"github.com/lorrc/queueing-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Dependency Injection (Wiring the Hexagon)

	// Repositories (Secondary Adapters)
	ticketRepo := postgres.NewTicketRepository(pool)
	queueRepo := postgres.NewQueueRepository(pool)

	// Change Listener (Secondary Adapter). A failed initial connect is
	// non-fatal: REST and snapshots still work, streams run degraded
	// until the listener reconnects.
	listener := postgres.NewChangeListener(pool, postgres.ListenerConfig{
		Channel:           cfg.Stream.Channel,
		ReconnectDelay:    cfg.Stream.ReconnectDelay,
		ReconnectFallback: cfg.Stream.ReconnectFallback,
		BufferSize:        cfg.Stream.EventBufferSize,
	}, logger)

	// Services (Core)
	snapshotService := services.NewSnapshotService(queueRepo, ticketRepo, logger)
	dedup := services.NewDedupCache(cfg.Stream.DedupSuppression, cfg.Stream.DedupRetention)
	dispatcher := services.NewDispatcher(dedup, logger)

	// Stream Session Manager (Primary Adapter)
	manager := stream.NewManager(snapshotService, logger)
	dispatcher.Register(manager.HandleChange)

	listener.Start(ctx)
	go dispatcher.Run(ctx, listener.Events())

	// 5. Initialize Rate Limiter
	var generalRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
	}

	// Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	ticketHandler := httpAdapter.NewTicketHandler(ticketRepo, errorHandler, logger)
	queueHandler := httpAdapter.NewQueueHandler(snapshotService, ticketRepo, errorHandler, logger)
	streamHandler := httpAdapter.NewStreamHandler(manager, listener, cfg.Stream.KeepAliveInterval, errorHandler, logger)
	wsHandler := httpAdapter.NewWSStreamHandler(manager, cfg, errorHandler, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, listener, cfg.App.Version)

	// 6. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Stream.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stream", streamHandler.HandleStream)
		r.Get("/stream/ws", wsHandler.ServeHTTP)
		r.Get("/stream/stats", streamHandler.HandleStats)

		r.Route("/tickets", ticketHandler.RegisterRoutes)
		r.Route("/queues", queueHandler.RegisterRoutes)
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown: stop accepting requests, then tear down the
	// listener and any sessions still streaming.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	listener.Close()
	manager.CloseAll()

	logger.Info("server shutdown complete")
}
