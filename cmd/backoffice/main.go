// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the back-office category server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
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

	"backoffice/internal/cache"
	"backoffice/internal/category"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handlers"
	"backoffice/internal/metrics"
	"backoffice/internal/middleware"
	"backoffice/internal/router"
	"backoffice/internal/storage"
	"backoffice/internal/store"
)

// categoryStore is what both storage drivers provide.
type categoryStore interface {
	store.CategoryAccessor
	store.CategoryTransactor
	Count(ctx context.Context) (int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	slog.SetDefault(newLogger(cfg))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageDriver,
	)

	// Open the category store for the configured driver.
	var categories categoryStore
	switch cfg.StorageDriver {
	case config.DriverMemory:
		slog.Warn("using in-memory category storage, data is lost on restart")
		categories = store.NewMemoryCategoryStore()
	default:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		categories = store.NewCategoryStore(db)
	}

	reg := metrics.NewRegistry()
	opts := []category.Option{category.WithMetrics(metrics.NewCategory(reg))}

	// Connect to Valkey for the forest cache (optional).
	var forestCache *cache.ForestCache
	if cfg.CacheEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()

		forestCache = cache.NewForestCache(valkeyClient, cfg.TreeCacheTTL)
		opts = append(opts, category.WithCache(forestCache))
	} else {
		slog.Warn("valkey not configured, forest cache disabled")
	}

	// Connect to S3-compatible object storage (optional; deletes still work
	// without it, attached documents are just not purged).
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
		opts = append(opts, category.WithPurger(storageClient))
	} else {
		slog.Warn("s3 storage not configured, document purge disabled")
	}

	svc := category.NewService(categories, opts...)

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Seed(ctx, categories, svc)
		cancel()
		if err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
		if forestCache != nil {
			forestCache.InvalidateAll(context.Background())
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitWrites > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitWrites, time.Minute)
		defer limiter.Stop()
	}

	r := router.New(router.Deps{
		Categories:   handlers.NewCategories(svc),
		Metrics:      metrics.Handler(reg),
		WriteLimiter: limiter,
	})

	// Create the HTTP server with sensible timeouts. Deep cascades on large
	// forests can take a while, so WriteTimeout is generous.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newLogger returns a JSON logger in production and a debug-level text
// logger otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
