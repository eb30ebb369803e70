package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"carbot_backend/platform/config"
	"carbot_backend/platform/logger"
)

// Client enqueues background jobs onto the Redis-backed queue.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// EnqueueLeadsRescore schedules a batch rescore. tenantID may be uuid.Nil
// to cover every tenant.
func (c *Client) EnqueueLeadsRescore(ctx context.Context, tenantID uuid.UUID, limit int) error {
	task, err := NewLeadsRescoreTask(tenantID, limit)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeLeadsRescoreBatch, err)
	}

	c.log.Info("task_enqueued",
		"task_id", info.ID, "type", info.Type, "queue", info.Queue)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
