// Package quotes persists wizard quote records and policy payments.
package quotes

import (
	"travel_portal_backend/internal/quotes/repository"
	"travel_portal_backend/internal/quotes/service"
	"travel_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{service: service.New(repository.New(pool), log)}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}
