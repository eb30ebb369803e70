// Command api runs the CarBot HTTP server: public lead intake for the chat
// widget plus the authenticated portal API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"carbot_backend/internal/email"
	"carbot_backend/internal/events"
	apphttp "carbot_backend/internal/http"
	"carbot_backend/internal/http/router"
	"carbot_backend/internal/leads"
	"carbot_backend/platform/cache"
	"carbot_backend/platform/config"
	"carbot_backend/platform/db"
	"carbot_backend/platform/logger"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := withRetry(ctx, log, "database connect", 5, func() (*pgxpool.Pool, error) {
		return db.NewPool(ctx, cfg)
	})
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := db.RunMigrations(ctx, cfg, migrationsDir); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	var appCache cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			appCache = redisCache
			defer redisCache.Close()
		}
	}

	mailer, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("email sender init failed", "error", err)
		os.Exit(1)
	}

	bus := events.NewInMemoryBus(log)

	leadsModule := leads.NewModule(dbPool, appCache, bus, mailer, log, cfg)

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  db.NewPoolAdapter(dbPool),
		Modules: []apphttp.Module{leadsModule},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// withRetry retries a startup dependency with a linear backoff. External
// services are often a few seconds behind the app in containerized
// deployments.
func withRetry[T any](ctx context.Context, log *logger.Logger, name string, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := fn()
		if err == nil {
			return value, nil
		}
		lastErr = err
		log.Warn("startup dependency not ready",
			"dependency", name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}

	return zero, lastErr
}
