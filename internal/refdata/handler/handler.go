// Package handler exposes reference data over HTTP.
package handler

import (
	"net/http"
	"strings"

	"travel_portal_backend/internal/refdata/service"
	"travel_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the read-only reference data routes.
type Handler struct {
	svc *service.Service
}

// New creates a reference data handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the reference data routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/destination-categories", h.ListDestinationCategories)
	rg.GET("/destination-categories/:category/countries", h.ListCountriesForCategory)
	rg.GET("/destination-help", h.DestinationHelp)
	rg.GET("/countries", h.ListResidenceCountries)
	rg.GET("/policy-types", h.ListPolicyTypes)
	rg.GET("/addons", h.ListAddons)
}

func (h *Handler) ListDestinationCategories(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": h.svc.DestinationCategories(c.Request.Context())})
}

func (h *Handler) ListCountriesForCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))
	httpkit.OK(c, gin.H{"items": h.svc.CountriesForCategory(c.Request.Context(), category)})
}

func (h *Handler) DestinationHelp(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": h.svc.DestinationHelp(c.Request.Context())})
}

func (h *Handler) ListResidenceCountries(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": h.svc.ResidenceCountries(c.Request.Context())})
}

func (h *Handler) ListPolicyTypes(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": h.svc.PolicyTypes(c.Request.Context())})
}

// ListAddons accepts provider spellings and answers with the resolved catalog.
func (h *Handler) ListAddons(c *gin.Context) {
	policyType := strings.TrimSpace(c.Query("policyType"))
	if policyType == "" {
		httpkit.Error(c, http.StatusBadRequest, "policyType is required", nil)
		return
	}
	httpkit.OK(c, h.svc.AddonCatalog(c.Request.Context(), policyType))
}
