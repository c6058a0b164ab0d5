package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"site-content-store/internal/auth"
	"site-content-store/internal/config"
	"site-content-store/internal/logging"
	"site-content-store/internal/metrics"
	"site-content-store/internal/server"
	"site-content-store/internal/story"
	"site-content-store/internal/views"
	"site-content-store/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	bootLogger := logging.New(os.Getenv("ENV"), os.Stdout)

	// Load configuration
	cfg, err := config.LoadConfig(logging.For(bootLogger, logging.ChannelSystem))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Environment, os.Stdout)
	systemLog := logging.For(logger, logging.ChannelSystem)

	locales, err := cfg.LocaleTable()
	if err != nil {
		return fmt.Errorf("locales: %w", err)
	}

	// Connect to the selected store backend
	backend, err := server.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("backend %s: %w", cfg.StoreDriver, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			systemLog.Warn("backend close failed", slog.Any("err", err))
		}
	}()

	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" && cfg.AdminPassword != "" {
		if passwordHash, err = auth.HashPassword(cfg.AdminPassword); err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
	}
	if passwordHash == "" {
		systemLog.Warn("no admin password configured, admin login is disabled")
	}

	m := metrics.New()
	viewsLog := logging.For(logger, logging.ChannelViews)
	counter := views.NewCounter(
		worker.NewWorkerPool(cfg.ViewWorkers, cfg.ViewQueueSize, viewsLog),
		story.NewService(backend.Stories, locales),
		cfg.ViewTimeout,
		viewsLog,
		m,
	)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Options{
		Environment:     cfg.Environment,
		FrontendAddress: cfg.FrontendAddress,
		Locales:         locales,
		Backend:         backend,
		Auth:            auth.NewHandler(issuer, passwordHash, logging.For(logger, logging.ChannelAuth)),
		Issuer:          issuer,
		Views:           counter,
		Metrics:         m,
		Logger:          logger,
	})

	// Server configuration
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	serveErr := make(chan error, 1)
	go func() {
		systemLog.Info("server listening",
			slog.String("port", cfg.ServerPort),
			slog.String("store", cfg.StoreDriver),
			slog.Any("locales", locales.Supported()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	systemLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		systemLog.Warn("server shutdown error", slog.Any("err", err))
	}

	// let queued view increments land before the backend closes
	counter.Shutdown()
	systemLog.Info("server shutdown complete")
	return nil
}
