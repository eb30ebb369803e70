package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"carbot_backend/internal/leads/scoring"
	"carbot_backend/platform/config"
	"carbot_backend/platform/logger"
)

// Worker processes background jobs from the Redis queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	scoring *scoring.Service
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, scoringSvc *scoring.Service, log *logger.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues: map[string]int{
			cfg.GetAsynqQueueName(): 1,
		},
	})

	w := &Worker{
		server:  server,
		mux:     asynq.NewServeMux(),
		scoring: scoringSvc,
		log:     log,
	}
	w.mux.HandleFunc(TypeLeadsRescoreBatch, w.handleLeadsRescore)
	return w, nil
}

// Run blocks until the server shuts down.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleLeadsRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := parseLeadsRescorePayload(task)
	if err != nil {
		// Malformed payloads never become valid; skip the retries.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var n int
	if payload.TenantID == uuid.Nil {
		n, err = w.scoring.RescoreAllTenants(ctx, payload.Limit)
	} else {
		n, err = w.scoring.RescoreTenant(ctx, payload.TenantID, payload.Limit)
	}
	if err != nil {
		return fmt.Errorf("rescore batch: %w", err)
	}

	w.log.Info("rescore_batch_done",
		"tenant_id", payload.TenantID.String(), "rescored", n)
	return nil
}
