package scheduler

import (
	"context"
	"fmt"

	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	mailer *ConfirmationMailer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, mailer *ConfirmationMailer, log *logger.Logger) (*Worker, error) {
	opt, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(mailer, log)
	w.server = server
	return w, nil
}

func newWorker(mailer *ConfirmationMailer, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:    mux,
		mailer: mailer,
		log:    log,
	}
	mux.HandleFunc(TaskPolicyConfirmation, w.handlePolicyConfirmation)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePolicyConfirmation(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePolicyConfirmationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return w.mailer.Deliver(ctx, payload)
}
