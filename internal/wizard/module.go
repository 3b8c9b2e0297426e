// Package wizard provides the quote wizard bounded context module.
package wizard

import (
	"time"

	"travel_portal_backend/internal/events"
	apphttp "travel_portal_backend/internal/http"
	"travel_portal_backend/internal/wizard/handler"
	"travel_portal_backend/internal/wizard/repository"
	"travel_portal_backend/internal/wizard/service"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/logger"
	"travel_portal_backend/platform/validator"
)

// Config is the configuration the wizard module reads.
type Config interface {
	config.SessionConfig
	config.WizardConfig
	config.MinIOConfig
}

// Dependencies are the collaborators of the wizard module.
type Dependencies struct {
	Store    repository.Store
	Pricing  service.Pricing
	RefData  service.RefData
	Records  service.QuoteRecorder
	Renderer service.SummaryRenderer
	// Storage is optional; without it summaries are served by the API.
	Storage service.DocumentStorage
	Bus     events.Bus
}

// Module represents the wizard domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the wizard module with all dependencies wired
func NewModule(cfg Config, deps Dependencies, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(deps.Store, deps.Pricing, deps.RefData, deps.Records, val, log, service.Options{
		SessionTTL:    cfg.GetSessionTTL(),
		VATCountries:  cfg.GetVATRequiredCountries(),
		AppBaseURL:    cfg.GetAppBaseURL(),
		SummaryBucket: cfg.GetMinioBucketPolicyDocuments(),
	})
	if deps.Renderer != nil {
		svc.SetRenderer(deps.Renderer)
	}
	if deps.Storage != nil {
		svc.SetDocumentStorage(deps.Storage)
	}
	if deps.Bus != nil {
		svc.SetEventBus(deps.Bus)
	}

	log.Info("wizard module initialized",
		"session_ttl", cfg.GetSessionTTL().Round(time.Second).String(),
		"vat_countries", len(cfg.GetVATRequiredCountries()),
		"summary_storage", deps.Storage != nil)

	return &Module{
		handler: handler.New(svc, val, cfg),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "wizard"
}

// Service returns the wizard service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes under /api/v1/wizard/sessions
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/wizard/sessions"), ctx.SessionMiddleware, ctx.PricingLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
