package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-kwic/api"
	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/internal/cache"
	"github.com/gcbaptista/go-kwic/internal/engine"
)

const shutdownTimeout = 10 * time.Second

// runServer starts the HTTP API and blocks until ctx is cancelled or the
// listener fails.
func runServer(ctx context.Context, cfg *config.AppConfig) error {
	opts := []engine.Option{
		engine.WithJobWorkers(cfg.Jobs.Workers),
		engine.WithJobMaxAge(cfg.Jobs.MaxAge),
	}
	if cfg.Redis.Addr != "" {
		rendered, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Printf("Warning: rendered ranking cache disabled: %v", err)
		} else {
			log.Printf("Caching rendered rankings in Redis at %s", cfg.Redis.Addr)
			opts = append(opts, engine.WithRenderedCache(rendered))
		}
	}

	log.Printf("Using data directory: %s", cfg.Server.DataDir)
	kwicEngine := engine.NewEngine(cfg.Server.DataDir, opts...)
	defer kwicEngine.Close()

	router := gin.Default()
	router.Use(api.RequestIDMiddleware())
	router.Use(api.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(api.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	api.SetupRoutes(router, kwicEngine)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s...", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
