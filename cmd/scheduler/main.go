// Command scheduler runs the background job worker and the cron scheduler
// that enqueues the nightly batch rescore.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"carbot_backend/internal/leads/repository"
	"carbot_backend/internal/leads/scoring"
	"carbot_backend/internal/scheduler"
	"carbot_backend/platform/config"
	"carbot_backend/platform/db"
	"carbot_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.RedisURL == "" {
		logger.New(cfg.Env).Error("REDIS_URL is required for the scheduler")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	scorer := scoring.NewScorer(log, cfg.DefaultJobValue)
	scoringSvc := scoring.NewService(repo, scorer, nil, log, cfg)

	worker, err := scheduler.NewWorker(cfg, scoringSvc, log)
	if err != nil {
		log.Error("worker init failed", "error", err)
		os.Exit(1)
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis uri", "error", err)
		os.Exit(1)
	}

	cron := asynq.NewScheduler(redisOpt, nil)
	rescoreTask, err := scheduler.NewLeadsRescoreTask(uuid.Nil, cfg.BatchLimit)
	if err != nil {
		log.Error("rescore task init failed", "error", err)
		os.Exit(1)
	}
	if _, err := cron.Register(cfg.RescoreCron, rescoreTask, asynq.Queue(cfg.AsynqQueueName)); err != nil {
		log.Error("cron registration failed", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("worker starting", "queue", cfg.AsynqQueueName, "concurrency", cfg.AsynqConcurrency)
		return worker.Run()
	})
	g.Go(func() error {
		log.Info("cron scheduler starting", "rescore_cron", cfg.RescoreCron)
		return cron.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		cron.Shutdown()
		worker.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler stopped")
}
