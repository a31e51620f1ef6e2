package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/gitpeek/internal/activity"
	"github.com/kurihiro0119/gitpeek/internal/api"
	"github.com/kurihiro0119/gitpeek/internal/auth"
	"github.com/kurihiro0119/gitpeek/internal/collector"
	"github.com/kurihiro0119/gitpeek/internal/config"
	"github.com/kurihiro0119/gitpeek/internal/logging"
	"github.com/kurihiro0119/gitpeek/internal/session"
	"github.com/kurihiro0119/gitpeek/internal/storage"
	"github.com/kurihiro0119/gitpeek/internal/storage/engine"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize storage
	stores, err := engine.OpenAll(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	janitor := storage.NewJanitor(map[string]storage.Store{
		storage.CacheTable:   stores.Cache,
		storage.SessionTable: stores.Sessions,
	}, cfg.CleanupInterval, logger)
	go janitor.Start(ctx)

	// Initialize services
	collectors, err := collector.NewFactory(collector.ClientConfigFrom(cfg), logger)
	if err != nil {
		return err
	}
	activityService := activity.NewService(collectors, stores.Cache, activity.Options{
		CacheTTL:    cfg.CacheTTL,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	})
	sessions := session.NewManager(stores.Sessions, cfg.SessionTTL, time.Now, logger)
	if !cfg.OAuthConfigured() {
		logger.Warn("GitHub OAuth is not configured, authenticated routes will fail")
	}

	handler := api.NewHandler(activityService, sessions, auth.NewOAuth(cfg), cfg.Env, logger)
	router := api.SetupRoutes(handler, api.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.APIHost, cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting API server", "addr", server.Addr, "storage", cfg.StorageType, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
