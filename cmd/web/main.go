package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
)

// newHandler wires the services behind the middleware chain.
func newHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, *services.DatasetStore) {
	store := services.NewDatasetStore(loader.New(logger), cfg.Cache.MaxDatasets, cfg.Cache.TTL, logger)

	srv := server.NewServer(handlers.Deps{
		Store:     store,
		Dashboard: services.NewDashboard(logger),
		Logger:    logger,
		Config:    cfg,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Session(cfg.Security.SecureCookies),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv), store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"upload_max_bytes", cfg.Upload.MaxBytes,
		"cache_max_datasets", cfg.Cache.MaxDatasets,
		"cache_ttl", cfg.Cache.TTL,
	)

	handler, store := newHandler(cfg, logger)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("dataset store at shutdown", "stats", store.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
