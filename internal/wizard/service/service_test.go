package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"travel_portal_backend/internal/events"
	"travel_portal_backend/internal/pricing"
	pricingservice "travel_portal_backend/internal/pricing/service"
	pricingtransport "travel_portal_backend/internal/pricing/transport"
	quotestransport "travel_portal_backend/internal/quotes/transport"
	refdatatransport "travel_portal_backend/internal/refdata/transport"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/internal/wizard/repository"
	"travel_portal_backend/internal/wizard/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/logger"
	"travel_portal_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type repriceCall struct {
	quoteID string
	ids     string
}

// stubProvider prices deterministically: a quote's base price plus 730
// cents per alteration id.
type stubProvider struct {
	mu            sync.Mutex
	quoteCalls    int
	repriceCalls  []repriceCall
	finalizeCalls int
	quotesErr     error
	repriceErr    error
	notSaved      bool
	documents     pricingtransport.DocumentURLs
	onReprice     func()
	// requote overrides prices by scheme id, as a provider does once the
	// real traveler data replaces placeholders.
	requote map[string]int64
}

var baseQuotes = []pricingtransport.QuoteOption{
	{ID: "q-premier", Name: "Premier", Tier: pricingtransport.TierPremium, PriceCents: 9900, Currency: "EUR", ProviderQuoteID: "PQ-C", SchemeID: "S-3", PolicyTypeName: "Single Trip Premier", Priority: 3},
	{ID: "q-essential", Name: "Essential", Tier: pricingtransport.TierBasic, PriceCents: 4500, Currency: "EUR", ProviderQuoteID: "PQ-A", SchemeID: "S-1", PolicyTypeName: "Single Trip", Priority: 5},
	{ID: "q-comprehensive", Name: "Comprehensive", Tier: pricingtransport.TierStandard, PriceCents: 6900, Currency: "EUR", ProviderQuoteID: "PQ-B", SchemeID: "S-2", PolicyTypeName: "Single Trip Plus", Priority: 4},
	{ID: "q-budget", Name: "Budget", Tier: pricingtransport.TierBasic, PriceCents: 2500, Currency: "EUR", ProviderQuoteID: "PQ-D", SchemeID: "S-4", PolicyTypeName: "Budget", Priority: 1},
}

func (p *stubProvider) GetQuotes(_ context.Context, _ pricingtransport.QuoteRequest) ([]pricingtransport.QuoteOption, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quoteCalls++
	if p.quotesErr != nil {
		return nil, p.quotesErr
	}
	quotes := append([]pricingtransport.QuoteOption(nil), baseQuotes...)
	for i := range quotes {
		if price, ok := p.requote[quotes[i].SchemeID]; ok {
			quotes[i].PriceCents = price
		}
	}
	return quotes, nil
}

func (p *stubProvider) RepriceWithAlterations(_ context.Context, quoteID, ids string, _ pricingtransport.QuoteRequest) ([]pricingtransport.QuoteOption, error) {
	p.mu.Lock()
	p.repriceCalls = append(p.repriceCalls, repriceCall{quoteID: quoteID, ids: ids})
	hook := p.onReprice
	err := p.repriceErr
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}

	var base pricingtransport.QuoteOption
	for _, q := range baseQuotes {
		if strings.HasPrefix(quoteID, q.ProviderQuoteID) {
			base = q
		}
	}
	base.PriceCents += int64(730 * len(strings.Split(ids, ",")))
	base.ProviderQuoteID = quoteID + "-alt"
	return []pricingtransport.QuoteOption{base}, nil
}

func (p *stubProvider) FinalizePolicy(_ context.Context, quoteID string, _ []pricingtransport.ScreeningAnswer, _ pricingtransport.QuoteRequest) (*pricingtransport.FinalizeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalizeCalls++
	if p.notSaved {
		return &pricingtransport.FinalizeResult{Saved: false}, nil
	}
	return &pricingtransport.FinalizeResult{Saved: true, PolicyID: "POL-" + quoteID, Documents: p.documents}, nil
}

func (p *stubProvider) EmailDocuments(context.Context, string, string) (*pricingtransport.EmailResult, error) {
	return nil, &pricing.ProviderError{Op: "EmailDocuments", Err: pricing.ErrProviderUnavailable}
}

func (p *stubProvider) GetScreeningQuestions(context.Context, string) ([]pricingtransport.ScreeningQuestion, error) {
	return []pricingtransport.ScreeningQuestion{{ID: "pre-existing", Text: "Do you have a pre-existing condition?"}}, nil
}

func (p *stubProvider) repriceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.repriceCalls)
}

type stubRefData struct {
	requested []string
}

func (r *stubRefData) AddonCatalog(_ context.Context, name string) refdatatransport.AddonCatalog {
	r.requested = append(r.requested, name)
	return refdatatransport.AddonCatalog{
		RequestedName: name,
		CanonicalName: name,
		Matched:       true,
		Addons: []refdatatransport.Addon{
			{ID: "winter", Name: "Winter sports", PriceCents: 730, Currency: "EUR", AlterationID: "7"},
			{ID: "gadget", Name: "Gadget cover", Currency: "EUR", AlterationID: "9"},
		},
	}
}

func (r *stubRefData) NormalizePolicyTypeName(raw string) (string, bool) {
	return strings.ToLower(strings.TrimSpace(raw)), true
}

type fakeRecorder struct {
	drafts   []quotestransport.Draft
	payments []quotestransport.PaymentRecord
	issued   []string
	id       uuid.UUID
}

func (f *fakeRecorder) SaveDraft(_ context.Context, d quotestransport.Draft) (*quotestransport.SavedDraft, error) {
	f.drafts = append(f.drafts, d)
	if f.id == uuid.Nil {
		f.id = uuid.New()
	}
	return &quotestransport.SavedDraft{ID: f.id, Reference: "TQ-2026-00001"}, nil
}

func (f *fakeRecorder) MarkIssued(_ context.Context, _ uuid.UUID, _, policyNumber string, _ int64) error {
	f.issued = append(f.issued, policyNumber)
	return nil
}

func (f *fakeRecorder) RecordPayment(_ context.Context, rec quotestransport.PaymentRecord) error {
	f.payments = append(f.payments, rec)
	return nil
}

// ── Harness ───────────────────────────────────────────────────────────────────

type harness struct {
	svc      *Service
	store    *repository.MemoryStore
	provider *stubProvider
	refdata  *stubRefData
	recorder *fakeRecorder
	bus      *events.InMemoryBus

	mu        sync.Mutex
	finalized []events.PolicyFinalized
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()
	h := &harness{
		store:    repository.NewMemoryStore(),
		provider: &stubProvider{documents: pricingtransport.DocumentURLs{PolicyWording: "https://insurer.example/wording.pdf"}},
		refdata:  &stubRefData{},
		recorder: &fakeRecorder{},
		bus:      events.NewInMemoryBus(log),
	}
	h.svc = New(h.store, pricingservice.New(h.provider, log), h.refdata, h.recorder, validator.New(), log, Options{
		SessionTTL:   time.Hour,
		VATCountries: []string{"GR", "Greece"},
	})
	h.svc.SetEventBus(h.bus)
	h.bus.Subscribe(events.PolicyFinalizedEventName, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.finalized = append(h.finalized, e.(events.PolicyFinalized))
		return nil
	}))
	return h
}

var ctx = context.Background()

func (h *harness) startAtQuotes(t *testing.T) uuid.UUID {
	t.Helper()
	st, err := h.svc.Start(ctx)
	require.NoError(t, err)

	_, err = h.svc.UpdateTrip(ctx, st.SessionID, transport.UpdateTripRequest{
		Destination:      "Europe",
		ResidenceCountry: "Greece",
		PolicyType:       "single",
		StartDate:        "2026-01-10",
		EndDate:          "2026-01-20",
		Travelers:        1,
	})
	require.NoError(t, err)

	st, err = h.svc.Advance(ctx, st.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseQuotes, st.Phase)
	return st.SessionID
}

func (h *harness) startAtAddOns(t *testing.T) uuid.UUID {
	t.Helper()
	id := h.startAtQuotes(t)
	st, err := h.svc.Advance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseAddOns, st.Phase)
	return id
}

func (h *harness) fillPayment(t *testing.T, id uuid.UUID, email string) {
	t.Helper()
	age := 41
	_, err := h.svc.UpdateTravelers(ctx, id, transport.UpdateTravelersRequest{Travelers: []transport.TravelerRequest{{
		FirstName: "Eleni", LastName: "Papadopoulou", Age: &age, TaxID: "el123456789", Email: email, Phone: "694 123 4567",
	}}})
	require.NoError(t, err)

	_, err = h.svc.UpdateBilling(ctx, id, transport.UpdateBillingRequest{
		AddressLine: "Ermou 12", City: "Athens", PostalCode: "10563", Country: "Greece",
	})
	require.NoError(t, err)

	accepted := true
	_, err = h.svc.UpdatePayment(ctx, id, transport.UpdatePaymentRequest{
		CardholderName: "Eleni Papadopoulou", CardNumber: "4242 4242 4242 4242", Expiry: "12/40", CVV: "123", TermsAccepted: &accepted,
	})
	require.NoError(t, err)
}

func (h *harness) advanceTo(t *testing.T, id uuid.UUID, phase domain.Phase) {
	t.Helper()
	for {
		st, err := h.svc.Get(ctx, id)
		require.NoError(t, err)
		if st.Phase == phase {
			return
		}
		_, err = h.svc.Advance(ctx, id)
		require.NoError(t, err)
	}
}

// ── Scenarios ─────────────────────────────────────────────────────────────────

func TestAddAndRemoveAddonEndToEnd(t *testing.T) {
	h := newHarness(t)
	id := h.startAtQuotes(t)

	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, st.Quotes, 3)
	require.False(t, st.QuotesFallback)
	require.Equal(t, "q-essential", st.Quotes[0].ID, "cheapest of the top three first")
	require.Equal(t, "q-essential", st.Selected.ID, "essential option is preselected")

	st, err = h.svc.SelectQuote(ctx, id, st.Quotes[0].ID)
	require.NoError(t, err)

	st, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseAddOns, st.Phase)
	require.Equal(t, []string{"Single Trip"}, h.refdata.requested)
	require.Len(t, st.AvailableAddons, 2)

	st, err = h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)
	require.Equal(t, []repriceCall{{quoteID: "PQ-A", ids: "7"}}, h.provider.repriceCalls)
	total, currency := domain.DisplayedTotal(st)
	require.Equal(t, int64(5230), total)
	require.Equal(t, "EUR", currency)
	require.Nil(t, st.Processing)

	st, err = h.svc.RemoveAddon(ctx, id, "winter")
	require.NoError(t, err)
	require.Empty(t, st.Attached)
	require.Nil(t, st.AuthoritativeTotalCents)
	total, _ = domain.DisplayedTotal(st)
	require.Equal(t, int64(4500), total)
	require.Equal(t, 1, h.provider.repriceCount(), "removing the last add-on needs no provider call")
}

func TestAddAddonSendsCumulativeAlterationList(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)
	st, err := h.svc.AddAddon(ctx, id, "gadget")
	require.NoError(t, err)

	require.Equal(t, "7,9", h.provider.repriceCalls[1].ids)
	require.Equal(t, "PQ-A", h.provider.repriceCalls[1].quoteID)
	require.Equal(t, []string{"7", "9"}, domain.AlterationIDs(st.Attached))
	require.Equal(t, int64(4500+2*730), *st.AuthoritativeTotalCents)

	again, err := h.svc.AddAddon(ctx, id, "gadget")
	require.NoError(t, err)
	require.Len(t, again.Attached, 2)
	require.Equal(t, 2, h.provider.repriceCount(), "attaching twice is a no-op")
}

func TestRepriceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	first, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)
	firstTotal := *first.AuthoritativeTotalCents

	_, err = h.svc.RemoveAddon(ctx, id, "winter")
	require.NoError(t, err)
	second, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)

	require.Equal(t, firstTotal, *second.AuthoritativeTotalCents)
}

func TestAddAddonFailureLeavesAttachedSetUnchanged(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)

	h.provider.repriceErr = &pricing.ProviderError{Op: "GetQuotesWithAlterations", Err: pricing.ErrProviderUnavailable}
	_, err = h.svc.AddAddon(ctx, id, "gadget")
	require.Error(t, err)
	require.Equal(t, apperr.KindUnavailable, apperr.GetKind(err))

	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"7"}, domain.AlterationIDs(st.Attached))
	require.Equal(t, int64(5230), *st.AuthoritativeTotalCents)
	require.Nil(t, st.Processing, "marker is released after a failed call")
}

func TestRemoveAddonFailureKeepsAddonRemoved(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)
	_, err = h.svc.AddAddon(ctx, id, "gadget")
	require.NoError(t, err)

	h.provider.repriceErr = &pricing.ProviderError{Op: "GetQuotesWithAlterations", Err: pricing.ErrProviderRejected}
	st, err := h.svc.RemoveAddon(ctx, id, "winter")
	require.NoError(t, err)
	require.Equal(t, []string{"9"}, domain.AlterationIDs(st.Attached))
	require.Contains(t, st.Notices, repriceNotice)
	require.Nil(t, st.Processing)
	require.Nil(t, st.AuthoritativeTotalCents, "the old total still priced the removed add-on")
	total, _ := domain.DisplayedTotal(st)
	require.Equal(t, int64(4500), total, "base price plus the remaining add-on's unknown price")
}

func TestAddonChangeRejectedWhileAnotherIsInFlight(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	st, err := h.store.Get(ctx, id)
	require.NoError(t, err)
	st.Processing = &domain.Processing{AddonID: "gadget", Token: "other", StartedAt: time.Now().UTC()}
	require.NoError(t, h.store.Save(ctx, st))

	_, err = h.svc.AddAddon(ctx, id, "winter")
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))
	require.Zero(t, h.provider.repriceCount())

	st.Processing.StartedAt = time.Now().UTC().Add(-3 * processingTTL)
	require.NoError(t, h.store.Save(ctx, st))

	_, err = h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err, "an abandoned marker expires")
}

func TestStaleRepriceIsDiscarded(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	h.provider.onReprice = func() {
		st, err := h.store.Get(ctx, id)
		require.NoError(t, err)
		st.SelectQuote(st.Quotes[1])
		require.NoError(t, h.store.Save(ctx, st))
	}

	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))

	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Empty(t, st.Attached)
	require.Nil(t, st.AuthoritativeTotalCents)
	require.Equal(t, "q-comprehensive", st.Selected.ID)
}

func TestSwitchingQuoteClearsAddons(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)

	st, err := h.svc.Retreat(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseQuotes, st.Phase)
	require.Len(t, st.Attached, 1, "retreat has no side effects")

	st, err = h.svc.SelectQuote(ctx, id, "q-comprehensive")
	require.NoError(t, err)
	require.Empty(t, st.Attached)
	require.Nil(t, st.AuthoritativeTotalCents)
	total, _ := domain.DisplayedTotal(st)
	require.Equal(t, int64(6900), total)
}

func TestSelectQuoteOutsideQuotesStep(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.SelectQuote(ctx, id, "q-comprehensive")
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))

	_, err = h.svc.Retreat(ctx, id)
	require.NoError(t, err)
	_, err = h.svc.SelectQuote(ctx, id, "missing")
	require.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestAdvanceGatedByPhaseValidity(t *testing.T) {
	h := newHarness(t)
	st, err := h.svc.Start(ctx)
	require.NoError(t, err)

	_, err = h.svc.Advance(ctx, st.SessionID)
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))

	got, err := h.svc.Get(ctx, st.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseTripDetails, got.Phase)
	require.Zero(t, h.provider.quoteCalls)

	_, err = h.svc.Retreat(ctx, st.SessionID)
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
}

func TestChangingTripRefetchesQuotes(t *testing.T) {
	h := newHarness(t)
	id := h.startAtQuotes(t)

	_, err := h.svc.Retreat(ctx, id)
	require.NoError(t, err)

	st, err := h.svc.UpdateTrip(ctx, id, transport.UpdateTripRequest{
		Destination: "Europe", ResidenceCountry: "Greece", PolicyType: "single",
		StartDate: "2026-01-10", EndDate: "2026-01-20", Travelers: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, st.Selected, "an unchanged trip keeps its quotes")

	st, err = h.svc.UpdateTrip(ctx, id, transport.UpdateTripRequest{
		Destination: "Europe", ResidenceCountry: "Greece", PolicyType: "single",
		StartDate: "2026-01-10", EndDate: "2026-01-25", Travelers: 2,
	})
	require.NoError(t, err)
	require.Nil(t, st.Selected)
	require.Empty(t, st.Quotes)
	require.Len(t, st.Travelers, 2)

	_, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, h.provider.quoteCalls)
}

func TestProviderFailureFallsBackToSampleQuotes(t *testing.T) {
	h := newHarness(t)
	h.provider.quotesErr = &pricing.ProviderError{Op: "GetQuotes", Err: pricing.ErrProviderUnavailable}
	id := h.startAtQuotes(t)

	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, st.QuotesFallback)
	require.NotEmpty(t, st.Quotes)
	require.NotEmpty(t, st.QuotesNotice)
	require.NotNil(t, st.Selected)

	_, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)
	_, err = h.svc.AddAddon(ctx, id, "winter")
	require.Equal(t, apperr.KindUnavailable, apperr.GetKind(err))
}

func TestPaymentRequiresValidHolderEmail(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "not-an-email")

	_, err := h.svc.Advance(ctx, id)
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhasePayment, st.Phase)
	require.Zero(t, h.provider.finalizeCalls)
	require.Empty(t, h.recorder.drafts)

	h.fillPayment(t, id, "a@b.co")
	st, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseDocuments, st.Phase)
	require.Equal(t, "POL-PQ-A", st.PolicyNumber)
}

func TestFinalizationWithAddons(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	_, err := h.svc.AddAddon(ctx, id, "winter")
	require.NoError(t, err)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")

	st, err := h.svc.Advance(ctx, id)
	require.NoError(t, err)
	h.bus.Wait()

	last := h.provider.repriceCalls[len(h.provider.repriceCalls)-1]
	require.Equal(t, repriceCall{quoteID: "PQ-A", ids: "7"}, last, "fresh quote id is re-priced with the same list")
	require.Equal(t, "POL-PQ-A-alt", st.PolicyNumber)
	require.Equal(t, "PQ-A-alt", st.ProviderQuoteID)
	require.False(t, st.DocumentsEmailed)
	require.Contains(t, st.Notices, emailNotice)

	require.Len(t, h.recorder.drafts, 1)
	draft := h.recorder.drafts[0]
	require.Len(t, draft.Lines, 2)
	require.Equal(t, int64(5230), *draft.TotalCents)
	require.Equal(t, "eleni@example.com", draft.HolderEmail)

	require.Len(t, h.recorder.payments, 1)
	require.Equal(t, int64(5230), h.recorder.payments[0].AmountCents)
	require.Equal(t, "4242", h.recorder.payments[0].CardLast4)
	require.Equal(t, []string{"POL-PQ-A-alt"}, h.recorder.issued)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.finalized, 1)
	require.Equal(t, "POL-PQ-A-alt", h.finalized[0].PolicyNumber)
	require.Equal(t, int64(5230), h.finalized[0].Summary.TotalCents)

	_, err = h.svc.AddAddon(ctx, id, "gadget")
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))
	_, err = h.svc.Retreat(ctx, id)
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))
}

func TestFinalizationChargesAndShowsFreshQuotePrice(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")

	h.provider.mu.Lock()
	h.provider.requote = map[string]int64{"S-1": 8800}
	h.provider.mu.Unlock()

	st, err := h.svc.Advance(ctx, id)
	require.NoError(t, err)
	h.bus.Wait()

	require.Equal(t, domain.PhaseDocuments, st.Phase)
	require.Equal(t, "q-essential", st.Selected.ID)
	require.Equal(t, int64(8800), st.Selected.PriceCents)
	total, _ := domain.DisplayedTotal(st)
	require.Equal(t, int64(8800), total)

	require.Len(t, h.recorder.payments, 1)
	require.Equal(t, int64(8800), h.recorder.payments[0].AmountCents)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.finalized, 1)
	require.Equal(t, int64(8800), h.finalized[0].TotalCents)
	require.Equal(t, int64(8800), h.finalized[0].Summary.TotalCents)
	require.Equal(t, int64(8800), h.finalized[0].Summary.BasePriceCents)
}

func TestFinalizationFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")

	h.provider.notSaved = true
	_, err := h.svc.Advance(ctx, id)
	require.Error(t, err)
	require.True(t, errors.Is(err, pricing.ErrPolicyNotSaved))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.True(t, strings.HasPrefix(appErr.Message, "Policy not saved"))
	require.Equal(t, true, appErr.Details.(map[string]interface{})["retryable"])

	st, err := h.svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhasePayment, st.Phase)
	require.NotNil(t, st.QuoteRecordID)
	require.Equal(t, "Eleni", st.Travelers[0].FirstName)

	h.provider.notSaved = false
	st, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseDocuments, st.Phase)
	require.Len(t, h.recorder.drafts, 2)
	require.Equal(t, h.recorder.id, *h.recorder.drafts[1].ID, "retry updates the same quote record")
}

func TestFinalizationBeforePolicySaveReportsPaymentNotCharged(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")

	h.provider.quotesErr = &pricing.ProviderError{Op: "GetQuotes", Err: pricing.ErrProviderUnavailable}
	_, err := h.svc.Advance(ctx, id)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.KindUnavailable, appErr.Kind)
	require.True(t, strings.HasPrefix(appErr.Message, "Payment not charged"))
	require.Zero(t, h.provider.finalizeCalls)
}

func TestFinalizationRequiresTaxIDForVATCountries(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")

	st, err := h.store.Get(ctx, id)
	require.NoError(t, err)
	st.Travelers[0].TaxID = ""
	require.NoError(t, h.store.Save(ctx, st))
	quoteCalls := h.provider.quoteCalls

	_, err = h.svc.Advance(ctx, id)
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
	require.Equal(t, quoteCalls, h.provider.quoteCalls, "no network call before validation passes")
	require.Empty(t, h.recorder.drafts)
}

func TestDocumentsOfferSummaryWhenAuthoritativeDocumentsMissing(t *testing.T) {
	h := newHarness(t)
	id := h.startAtAddOns(t)

	_, err := h.svc.Documents(ctx, id)
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))

	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")
	_, err = h.svc.Advance(ctx, id)
	require.NoError(t, err)

	docs, err := h.svc.Documents(ctx, id)
	require.NoError(t, err)
	require.True(t, docs.SummaryAvailable)
	require.Equal(t, "/api/v1/wizard/sessions/"+id.String()+"/documents/summary", docs.SummaryURL)
	require.Equal(t, "https://insurer.example/wording.pdf", docs.Documents.PolicyWording)

	doc, err := h.svc.SummaryDocument(ctx, id)
	require.NoError(t, err)
	require.True(t, doc.IsPDF())
	require.NotEmpty(t, doc.Content)
}

func TestDocumentsWithoutSummaryWhenProviderSuppliedAll(t *testing.T) {
	h := newHarness(t)
	h.provider.documents = pricingtransport.DocumentURLs{
		Certificate:    "https://insurer.example/cert.pdf",
		PolicyWording:  "https://insurer.example/wording.pdf",
		SummaryOfCover: "https://insurer.example/soc.pdf",
	}
	id := h.startAtAddOns(t)
	h.advanceTo(t, id, domain.PhasePayment)
	h.fillPayment(t, id, "eleni@example.com")
	_, err := h.svc.Advance(ctx, id)
	require.NoError(t, err)

	docs, err := h.svc.Documents(ctx, id)
	require.NoError(t, err)
	require.False(t, docs.SummaryAvailable)
	require.Empty(t, docs.SummaryURL)

	_, err = h.svc.SummaryDocument(ctx, id)
	require.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestUpdateTravelersMustMatchTripCount(t *testing.T) {
	h := newHarness(t)
	id := h.startAtQuotes(t)

	_, err := h.svc.UpdateTravelers(ctx, id, transport.UpdateTravelersRequest{Travelers: []transport.TravelerRequest{{}, {}}})
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
}

func TestPlaceholdersFillUnknownPricingFields(t *testing.T) {
	h := newHarness(t)
	st := domain.NewState(uuid.New(), time.Now(), time.Hour)
	st.Trip = domain.TripRequest{ResidenceCountry: "Greece", StartDate: "2026-01-10", EndDate: "2026-01-20", Travelers: 1}

	req := h.svc.pricingRequest(st, true)
	require.Equal(t, placeholderAge, req.Travelers[0].Age)
	require.Equal(t, placeholderEmail, req.Contact.Email)
	require.Equal(t, placeholderPhone, req.Contact.Phone)

	st.Travelers[0] = domain.Traveler{DateOfBirth: "1990-06-15", Email: "a@b.co", Phone: "6941234567"}
	req = h.svc.pricingRequest(st, false)
	require.Equal(t, 35, req.Travelers[0].Age)
	require.Equal(t, "a@b.co", req.Contact.Email)
	require.Equal(t, "+306941234567", req.Contact.Phone)
}

func TestResetDeletesSession(t *testing.T) {
	h := newHarness(t)
	id := h.startAtQuotes(t)

	require.NoError(t, h.svc.Reset(ctx, id))
	_, err := h.svc.Get(ctx, id)
	require.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
}

func TestScreeningQuestions(t *testing.T) {
	h := newHarness(t)
	id := h.startAtQuotes(t)

	questions, err := h.svc.ScreeningQuestions(ctx, id)
	require.NoError(t, err)
	require.Len(t, questions, 1)
}
