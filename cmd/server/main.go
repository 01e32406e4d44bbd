// VI mosaic service entry point
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

	"github.com/joho/godotenv"

	"github.com/robert-malhotra/vi-mosaic/internal/api"
	"github.com/robert-malhotra/vi-mosaic/internal/composite"
	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/engine"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/scheduler"
	"github.com/robert-malhotra/vi-mosaic/internal/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting VI mosaic service",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"source", cfg.Source.Type,
	)

	products := config.NewProductRegistry()
	if cfg.Engine.ProductsDir != "" {
		if err := products.LoadProducts(cfg.Engine.ProductsDir); err != nil {
			return fmt.Errorf("failed to load products from %q: %w", cfg.Engine.ProductsDir, err)
		}
	}
	logger.Info("loaded product table", "count", products.Count())

	grids := grid.NewRegistry()

	var tiles source.TileSource
	switch cfg.Source.Type {
	case "dir":
		tiles, err = source.NewDirSource(cfg.Source.Dir)
		if err != nil {
			return fmt.Errorf("failed to open tile directory: %w", err)
		}
		logger.Info("using directory tile source", "dir", cfg.Source.Dir)
	default:
		tiles = source.NewMemorySource()
		logger.Warn("using empty in-memory tile source; every build will report full coverage gaps")
	}

	eng := engine.New(products, grids, tiles, logger).
		WithRule(composite.ByName(cfg.Engine.Rule)).
		WithConcurrency(cfg.Engine.Concurrency)

	if cfg.Schedule.Enabled {
		sched, err := scheduler.New(eng, products, cfg.Schedule, logger)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	handlers := api.NewHandlers(cfg, eng, products, grids, logger)
	router := api.NewRouter(handlers, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
