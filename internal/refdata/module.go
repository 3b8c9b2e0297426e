// Package refdata provides the reference data bounded context module.
package refdata

import (
	apphttp "travel_portal_backend/internal/http"
	"travel_portal_backend/internal/refdata/client"
	"travel_portal_backend/internal/refdata/handler"
	"travel_portal_backend/internal/refdata/service"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/logger"
)

// Module is the reference data module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the reference data module backed by the catalog REST API.
func NewModule(cfg config.RefDataConfig, log *logger.Logger) *Module {
	apiClient := client.New(cfg.GetRefDataBaseURL(), log)
	svc := service.New(apiClient, service.DefaultPolicyTypeNormalizer(), cfg.GetRefDataCacheTTL(), log)

	log.Info("reference data module initialized", "base_url", cfg.GetRefDataBaseURL())

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "refdata"
}

// Service returns the reference data service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/reference"))
}

var _ apphttp.Module = (*Module)(nil)
