package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/ingest"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/store"
)

const loadTimeout = 60 * time.Second

func main() {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"backend", cfg.Dataset.Backend,
		"addr", cfg.Address(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	dataStore, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		logger.Error("failed to open transaction store", "error", err)
		os.Exit(1)
	}

	service := services.NewTransactionService(dataStore, logger)
	if err := service.Warm(ctx); err != nil {
		cancel()
		logger.Error("failed to warm caches", "error", err)
		os.Exit(1)
	}
	cancel()

	srv := server.NewServer(service, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		return cleanup()
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

// openStore builds the configured backend. The memory backend always
// ingests the CSV; the sqlite backend ingests only when a CSV is
// configured, otherwise it serves the existing database contents.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Dataset.Backend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.Dataset.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Dataset.CSVFile != "" {
			transactions, err := ingest.LoadCSV(ctx, cfg.Dataset.CSVFile, logger)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			if err := db.ReplaceAll(ctx, transactions); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return db, db.Close, nil

	default:
		transactions, err := ingest.LoadCSV(ctx, cfg.Dataset.CSVFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMemoryStore(transactions), noop, nil
	}
}
