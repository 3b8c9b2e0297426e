package scheduler

import (
	"context"
	"errors"

	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/redisopt"

	"github.com/hibiken/asynq"
)

const (
	confirmationMaxRetry = 5
	defaultQueue         = "default"
)

// ConfirmationScheduler enqueues policy confirmation emails.
type ConfirmationScheduler interface {
	EnqueuePolicyConfirmation(ctx context.Context, payload PolicyConfirmationPayload) error
}

// Client enqueues jobs for the scheduler worker. A nil *Client drops jobs.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt), queue: queueName(cfg)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueuePolicyConfirmation enqueues one confirmation per policy number; a
// second enqueue for the same policy is ignored.
func (c *Client) EnqueuePolicyConfirmation(ctx context.Context, payload PolicyConfirmationPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewPolicyConfirmationTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(confirmationMaxRetry),
		asynq.TaskID(confirmationTaskID(payload.PolicyNumber)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func confirmationTaskID(policyNumber string) string {
	return TaskPolicyConfirmation + ":" + policyNumber
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return defaultQueue
}

func connOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	opt, err := redisopt.Parse(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
