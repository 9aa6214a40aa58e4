// Package main provides the entry point for the media conversion API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maauso/mediaconvert-api/internal/bootstrap"
	"github.com/maauso/mediaconvert-api/internal/config"
	"github.com/maauso/mediaconvert-api/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting mediaconvert API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("temp_dir", cfg.TempDir),
		slog.Bool("video_autoload", cfg.VideoAutoload),
		slog.Int("video_max_concurrent", cfg.VideoMaxConcurrent),
		slog.Duration("video_timeout", cfg.VideoTimeout),
		slog.Bool("webp_enabled", cfg.WebPEnabled),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
		slog.Bool("gcs_enabled", cfg.GCSEnabled()),
	)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(appCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("failed to release dependencies", slog.String("error", err.Error()))
		}
	}()

	// Initialize HTTP handlers and router
	var handlerOpts []server.HandlerOption
	handlerOpts = append(handlerOpts, server.WithMaxUploadBytes(cfg.MaxUploadBytes()))
	if cfg.S3Enabled() || cfg.GCSEnabled() {
		handlerOpts = append(handlerOpts, server.WithPublisher(deps.Storage))
	}
	handlers := server.NewHandlers(deps.Dispatcher, deps.Runtime, logger, handlerOpts...)
	router := server.NewRouter(handlers, logger, server.DefaultConfig())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.VideoTimeout + 60*time.Second, // Allow for the slowest video operation
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
