package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pricingservice "travel_portal_backend/internal/pricing/service"
	pricingtransport "travel_portal_backend/internal/pricing/transport"
	quotestransport "travel_portal_backend/internal/quotes/transport"
	refdatatransport "travel_portal_backend/internal/refdata/transport"
	"travel_portal_backend/internal/wizard/repository"
	"travel_portal_backend/internal/wizard/service"
	"travel_portal_backend/internal/wizard/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/httpkit"
	"travel_portal_backend/platform/logger"
	"travel_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type sessionCfg struct{}

func (sessionCfg) GetSessionSecret() string     { return "handler-test-secret" }
func (sessionCfg) GetSessionTTL() time.Duration { return time.Hour }

type stubPricing struct{}

func (stubPricing) Quotes(context.Context, pricingtransport.QuoteRequest) pricingservice.QuoteList {
	return pricingservice.QuoteList{Options: []pricingtransport.QuoteOption{
		{ID: "q-essential", Name: "Essential", PriceCents: 4500, Currency: "EUR", ProviderQuoteID: "PQ-A", PolicyTypeName: "Single Trip"},
		{ID: "q-plus", Name: "Plus", PriceCents: 6900, Currency: "EUR", ProviderQuoteID: "PQ-B", PolicyTypeName: "Single Trip Plus"},
	}}
}

func (stubPricing) FreshQuotes(context.Context, pricingtransport.QuoteRequest) ([]pricingtransport.QuoteOption, error) {
	return nil, apperr.New(apperr.KindUnavailable, "unavailable")
}

func (stubPricing) Reprice(_ context.Context, quoteID string, ids []string, _ pricingtransport.QuoteRequest) (*pricingtransport.QuoteOption, error) {
	return &pricingtransport.QuoteOption{ProviderQuoteID: quoteID, PriceCents: 4500 + int64(730*len(ids)), Currency: "EUR"}, nil
}

func (stubPricing) Finalize(context.Context, string, []pricingtransport.ScreeningAnswer, pricingtransport.QuoteRequest) (*pricingtransport.FinalizeResult, error) {
	return nil, apperr.New(apperr.KindUnavailable, "unavailable")
}

func (stubPricing) EmailDocuments(context.Context, string, string) bool { return false }

func (stubPricing) ScreeningQuestions(context.Context, string) ([]pricingtransport.ScreeningQuestion, error) {
	return []pricingtransport.ScreeningQuestion{{ID: "q1", Text: "Any pre-existing conditions?"}}, nil
}

type stubRefData struct{}

func (stubRefData) AddonCatalog(_ context.Context, name string) refdatatransport.AddonCatalog {
	return refdatatransport.AddonCatalog{RequestedName: name, CanonicalName: name, Matched: true, Addons: []refdatatransport.Addon{
		{ID: "winter", Name: "Winter sports", PriceCents: 730, Currency: "EUR", AlterationID: "7"},
	}}
}

func (stubRefData) NormalizePolicyTypeName(raw string) (string, bool) { return raw, true }

type stubRecorder struct{}

func (stubRecorder) SaveDraft(context.Context, quotestransport.Draft) (*quotestransport.SavedDraft, error) {
	return &quotestransport.SavedDraft{ID: uuid.New()}, nil
}

func (stubRecorder) MarkIssued(context.Context, uuid.UUID, string, string, int64) error { return nil }

func (stubRecorder) RecordPayment(context.Context, quotestransport.PaymentRecord) error { return nil }

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	val := validator.New()
	svc := service.New(repository.NewMemoryStore(), stubPricing{}, stubRefData{}, stubRecorder{}, val, log, service.Options{SessionTTL: time.Hour})

	r := gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	New(svc, val, sessionCfg{}).RegisterRoutes(r.Group("/api/v1/wizard/sessions"), httpkit.SessionRequired(sessionCfg{}), noLimit)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, r *gin.Engine) (string, transport.StartSessionResponse) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/wizard/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp transport.StartSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return "/api/v1/wizard/sessions/" + resp.Session.ID.String(), resp
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) transport.SessionResponse {
	t.Helper()
	var resp transport.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStartSessionRendersFirstStep(t *testing.T) {
	r := newRouter(t)
	_, resp := startSession(t, r)

	require.Equal(t, "trip_details", resp.Session.Phase)
	require.Equal(t, 1, resp.Session.Step)
	require.False(t, resp.Session.CanAdvance)
	require.NotEmpty(t, resp.Session.Violations)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	r := newRouter(t)
	path, _ := startSession(t, r)

	w := do(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	_, other := startSession(t, r)
	w = do(t, r, http.MethodGet, path, other.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWizardFlowOverHTTP(t *testing.T) {
	r := newRouter(t)
	path, start := startSession(t, r)
	token := start.Token

	w := do(t, r, http.MethodPut, path+"/trip", token, transport.UpdateTripRequest{
		Destination: "Europe", ResidenceCountry: "Greece", PolicyType: "single",
		StartDate: "2026-01-10", EndDate: "2026-01-20", Travelers: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeSession(t, w).CanAdvance)

	w = do(t, r, http.MethodPost, path+"/advance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess := decodeSession(t, w)
	require.Equal(t, "quotes", sess.Phase)
	require.Len(t, sess.Quotes, 2)
	require.Equal(t, "q-essential", sess.Selected.ID)

	w = do(t, r, http.MethodPut, path+"/selection", token, transport.SelectQuoteRequest{QuoteID: "q-plus"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(6900), decodeSession(t, w).DisplayedTotalCents)

	w = do(t, r, http.MethodPut, path+"/selection", token, transport.SelectQuoteRequest{QuoteID: "q-essential"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, path+"/advance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "add_ons", decodeSession(t, w).Phase)

	w = do(t, r, http.MethodPost, path+"/addons/winter", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess = decodeSession(t, w)
	require.Equal(t, int64(5230), sess.DisplayedTotalCents)
	require.Len(t, sess.Attached, 1)

	w = do(t, r, http.MethodDelete, path+"/addons/winter", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(4500), decodeSession(t, w).DisplayedTotalCents)

	w = do(t, r, http.MethodPost, path+"/retreat", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess = decodeSession(t, w)
	require.Equal(t, "quotes", sess.Phase)
	require.True(t, sess.ScrollToTop)

	w = do(t, r, http.MethodGet, path+"/screening-questions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var questions transport.ScreeningQuestionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	require.Len(t, questions.Questions, 1)
}

func TestRequestValidation(t *testing.T) {
	r := newRouter(t)
	path, start := startSession(t, r)

	w := do(t, r, http.MethodPut, path+"/trip", start.Token, "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, path+"/trip", start.Token, transport.UpdateTripRequest{StartDate: "10/01/2026", Travelers: 1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, path+"/payment", start.Token, transport.UpdatePaymentRequest{
		CardholderName: "A B", CardNumber: "4242424242424241", Expiry: "12/40", CVV: "123",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, path+"/advance", start.Token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentsBeforeFinalization(t *testing.T) {
	r := newRouter(t)
	path, start := startSession(t, r)

	w := do(t, r, http.MethodGet, path+"/documents", start.Token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, path+"/documents/summary", start.Token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestResetRemovesSession(t *testing.T) {
	r := newRouter(t)
	path, start := startSession(t, r)

	w := do(t, r, http.MethodDelete, path, start.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, start.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
