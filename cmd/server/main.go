// Package main is the entrypoint for the TalentLens analysis server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shreyasbhat/talentlens/internal/api"
	"github.com/shreyasbhat/talentlens/internal/api/handler"
	mw "github.com/shreyasbhat/talentlens/internal/api/middleware"
	"github.com/shreyasbhat/talentlens/internal/api/response"
	"github.com/shreyasbhat/talentlens/internal/cache"
	"github.com/shreyasbhat/talentlens/internal/config"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/nlp"
	"github.com/shreyasbhat/talentlens/internal/service"
	"github.com/shreyasbhat/talentlens/internal/store"
	"github.com/shreyasbhat/talentlens/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "model", cfg.Model.Name, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build the analysis engine around the model server
	model := nlp.NewHTTPModel(cfg.Model)
	eng := engine.New(model, cfg.Engine)
	slog.Info("analysis engine initialized", "model", model.Name())

	if cfg.Model.Warmup {
		err := eng.Warmup(ctx, cfg.Engine, func(p engine.WarmupProgress) {
			if p.Err != nil {
				slog.Warn("model warmup attempt failed",
					"attempt", p.Attempt, "attempts", p.Attempts, "error", p.Err)
				return
			}
			slog.Info("model warmed up", "attempt", p.Attempt, "elapsed", p.Elapsed.String())
		})
		if err != nil {
			return fmt.Errorf("warm up model: %w", err)
		}
	}

	// 6. Create store and services
	pgStore := store.NewPostgresStore(pool)
	jobs := service.NewJobs(pgStore, eng, redisCache, cfg.Worker.MaxTopics)

	// 7. Start the job worker
	emitter := worker.NewMultiEmitter(
		worker.NewSlogEmitter(slog.Default()),
		worker.NewRedisEmitter(redisCache, cfg.Redis.EventChannel),
	)
	invalidator := worker.NewInsightsInvalidator(redisCache)
	jobWorker := worker.New(pgStore, eng, cfg.Worker, redisCache, emitter, invalidator)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		jobWorker.Run(ctx)
	}()

	// 8. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler:           healthHandler(pgStore, redisCache),
		EnqueueJobHandler:       handler.NewEnqueueJobHandler(jobs),
		GetJobHandler:           handler.NewGetJobHandler(jobs),
		GetJobStatusHandler:     handler.NewGetJobStatusHandler(jobs),
		AnalyzeSentimentHandler: handler.NewAnalyzeSentimentHandler(jobs),
		ExtractTopicsHandler:    handler.NewExtractTopicsHandler(jobs),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout; the worker drains via ctx cancel
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	wg.Wait()
	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
