package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"travel_portal_backend/internal/documents"
	"travel_portal_backend/internal/email"
	"travel_portal_backend/internal/scheduler"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var converter documents.HTMLConverter
	if cfg.IsGotenbergEnabled() {
		converter = documents.NewGotenbergClient(cfg)
	}

	var sender email.Sender = email.NoopSender{}
	if cfg.IsEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	} else {
		log.Warn("SMTP not configured; confirmations are acknowledged without sending")
	}

	mailer := scheduler.NewConfirmationMailer(documents.NewRenderer(converter, log), sender, log)
	worker, err := scheduler.NewWorker(cfg, mailer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("scheduler stopped")
}
