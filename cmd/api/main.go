package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel_portal_backend/internal/adapters/storage"
	"travel_portal_backend/internal/documents"
	"travel_portal_backend/internal/email"
	"travel_portal_backend/internal/events"
	apphttp "travel_portal_backend/internal/http"
	"travel_portal_backend/internal/http/router"
	"travel_portal_backend/internal/notification"
	pricingclient "travel_portal_backend/internal/pricing/client"
	pricingservice "travel_portal_backend/internal/pricing/service"
	"travel_portal_backend/internal/quotes"
	"travel_portal_backend/internal/refdata"
	"travel_portal_backend/internal/scheduler"
	"travel_portal_backend/internal/wizard"
	"travel_portal_backend/internal/wizard/repository"
	"travel_portal_backend/migrations"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/db"
	"travel_portal_backend/platform/logger"
	"travel_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	sessionStore, closeStore := initSessionStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	renderer := initRenderer(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pricingSvc := pricingservice.New(pricingclient.New(cfg, log), log)
	refdataModule := refdata.NewModule(cfg, log)
	quotesModule := quotes.NewModule(pool, log)

	deps := wizard.Dependencies{
		Store:    sessionStore,
		Pricing:  pricingSvc,
		RefData:  refdataModule.Service(),
		Records:  quotesModule.Service(),
		Renderer: renderer,
		Bus:      eventBus,
	}
	if storageSvc := initStorage(ctx, cfg, log); storageSvc != nil {
		deps.Storage = storageSvc
	}
	wizardModule := wizard.NewModule(cfg, deps, val, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	confirmations, closeScheduler := initConfirmationScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	var mailer notification.Mailer
	if cfg.IsEmailEnabled() {
		mailer = scheduler.NewConfirmationMailer(renderer, email.NewSMTPSender(cfg), log)
	} else {
		log.Warn("SMTP not configured; policy confirmation emails disabled")
	}
	notificationModule := notification.New(confirmations, mailer, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			refdataModule,
			wizardModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSessionStore uses Redis when REDIS_URL is set, so several instances
// can share sessions, and an in-process store otherwise.
func initSessionStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; wizard sessions are kept in memory")
		return repository.NewMemoryStore(), nil
	}

	rdb, err := repository.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis session store initialized")

	return repository.NewRedisStore(rdb), func() {
		_ = rdb.Close()
	}
}

func initRenderer(cfg *config.Config, log *logger.Logger) *documents.Renderer {
	if !cfg.IsGotenbergEnabled() {
		return documents.NewRenderer(nil, log)
	}
	log.Info("gotenberg PDF generator initialized", "url", cfg.GetGotenbergURL())
	return documents.NewRenderer(documents.NewGotenbergClient(cfg), log)
}

// initStorage returns nil when MinIO is not configured; summaries are then
// served by the API.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.MinIOService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; policy summaries are rendered on request")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketPolicyDocuments()
	if err := withRetry(ctx, log, "ensure policy-documents bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "policyDocumentsBucket", bucket)
	return storageSvc
}

func initConfirmationScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ConfirmationScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; policy confirmations are sent inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize confirmation scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
