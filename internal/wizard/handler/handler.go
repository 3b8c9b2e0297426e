// Package handler exposes the quote wizard over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/internal/wizard/service"
	"travel_portal_backend/internal/wizard/transport"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/httpkit"
	"travel_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for wizard sessions.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	sessions config.SessionConfig
}

// New creates a wizard handler.
func New(svc *service.Service, val *validator.Validator, sessions config.SessionConfig) *Handler {
	return &Handler{svc: svc, val: val, sessions: sessions}
}

// RegisterRoutes registers the wizard routes. Every route below a session
// id requires that session's token; routes that reach the quoting provider
// are rate limited.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, sessionRequired gin.HandlerFunc, pricingLimit gin.HandlerFunc) {
	rg.POST("", h.Start)

	session := rg.Group("/:id", sessionRequired)
	session.GET("", h.Get)
	session.DELETE("", h.Reset)
	session.PUT("/trip", h.UpdateTrip)
	session.PUT("/travelers", h.UpdateTravelers)
	session.PUT("/billing", h.UpdateBilling)
	session.PUT("/payment", h.UpdatePayment)
	session.PUT("/terms", h.AcceptTerms)
	session.PUT("/selection", h.SelectQuote)
	session.POST("/retreat", h.Retreat)
	session.GET("/documents", h.Documents)
	session.GET("/documents/summary", h.DownloadSummary)

	priced := session.Group("", pricingLimit)
	priced.POST("/advance", h.Advance)
	priced.POST("/addons/:addonId", h.AddAddon)
	priced.DELETE("/addons/:addonId", h.RemoveAddon)
	priced.GET("/screening-questions", h.ScreeningQuestions)
}

// Start handles POST /api/v1/wizard/sessions
func (h *Handler) Start(c *gin.Context) {
	st, err := h.svc.Start(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	token, expiresAt, err := httpkit.IssueSessionToken(h.sessions, st.SessionID, st.CreatedAt)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.StartSessionResponse{
		Token:          token,
		TokenExpiresAt: expiresAt,
		Session:        h.render(st),
	})
}

// Get handles GET /api/v1/wizard/sessions/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	st, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.render(st))
}

// Reset handles DELETE /api/v1/wizard/sessions/:id
func (h *Handler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Reset(c.Request.Context(), id)) {
		return
	}
	httpkit.NoContent(c)
}

// UpdateTrip handles PUT /api/v1/wizard/sessions/:id/trip
func (h *Handler) UpdateTrip(c *gin.Context) {
	var req transport.UpdateTripRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.UpdateTrip(c.Request.Context(), id, req)
	h.respond(c, st, err)
}

// UpdateTravelers handles PUT /api/v1/wizard/sessions/:id/travelers
func (h *Handler) UpdateTravelers(c *gin.Context) {
	var req transport.UpdateTravelersRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.UpdateTravelers(c.Request.Context(), id, req)
	h.respond(c, st, err)
}

// UpdateBilling handles PUT /api/v1/wizard/sessions/:id/billing
func (h *Handler) UpdateBilling(c *gin.Context) {
	var req transport.UpdateBillingRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.UpdateBilling(c.Request.Context(), id, req)
	h.respond(c, st, err)
}

// UpdatePayment handles PUT /api/v1/wizard/sessions/:id/payment
func (h *Handler) UpdatePayment(c *gin.Context) {
	var req transport.UpdatePaymentRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.UpdatePayment(c.Request.Context(), id, req)
	h.respond(c, st, err)
}

// AcceptTerms handles PUT /api/v1/wizard/sessions/:id/terms
func (h *Handler) AcceptTerms(c *gin.Context) {
	var req transport.AcceptTermsRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.AcceptTerms(c.Request.Context(), id, req.Accepted)
	h.respond(c, st, err)
}

// SelectQuote handles PUT /api/v1/wizard/sessions/:id/selection
func (h *Handler) SelectQuote(c *gin.Context) {
	var req transport.SelectQuoteRequest
	id, ok := h.bind(c, &req)
	if !ok {
		return
	}
	st, err := h.svc.SelectQuote(c.Request.Context(), id, req.QuoteID)
	h.respond(c, st, err)
}

// Advance handles POST /api/v1/wizard/sessions/:id/advance
func (h *Handler) Advance(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	st, err := h.svc.Advance(c.Request.Context(), id)
	h.respond(c, st, err)
}

// Retreat handles POST /api/v1/wizard/sessions/:id/retreat
func (h *Handler) Retreat(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	st, err := h.svc.Retreat(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := h.render(st)
	resp.ScrollToTop = true
	httpkit.OK(c, resp)
}

// AddAddon handles POST /api/v1/wizard/sessions/:id/addons/:addonId
func (h *Handler) AddAddon(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	st, err := h.svc.AddAddon(c.Request.Context(), id, strings.TrimSpace(c.Param("addonId")))
	h.respond(c, st, err)
}

// RemoveAddon handles DELETE /api/v1/wizard/sessions/:id/addons/:addonId
func (h *Handler) RemoveAddon(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	st, err := h.svc.RemoveAddon(c.Request.Context(), id, strings.TrimSpace(c.Param("addonId")))
	h.respond(c, st, err)
}

// ScreeningQuestions handles GET /api/v1/wizard/sessions/:id/screening-questions
func (h *Handler) ScreeningQuestions(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	questions, err := h.svc.ScreeningQuestions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ScreeningQuestionsResponse{Questions: questions})
}

// Documents handles GET /api/v1/wizard/sessions/:id/documents
func (h *Handler) Documents(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	docs, err := h.svc.Documents(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, docs)
}

// DownloadSummary handles GET /api/v1/wizard/sessions/:id/documents/summary
func (h *Handler) DownloadSummary(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	doc, err := h.svc.SummaryDocument(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func (h *Handler) bind(c *gin.Context, req interface{}) (uuid.UUID, bool) {
	id, ok := sessionID(c)
	if !ok {
		return uuid.Nil, false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(c *gin.Context, st *domain.State, err error) {
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.render(st))
}

func (h *Handler) render(st *domain.State) transport.SessionResponse {
	return transport.NewSessionResponse(st, h.svc.Violations(st))
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := httpkit.SessionID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "session token required", nil)
		return uuid.Nil, false
	}
	return id, true
}
