package service

import (
	"context"
	"strings"

	"travel_portal_backend/internal/events"
	pricingtransport "travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/internal/wizard/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Start creates a wizard session at TripDetails.
func (s *Service) Start(ctx context.Context) (*domain.State, error) {
	st := domain.NewState(uuid.New(), s.now(), s.opts.SessionTTL)
	if err := s.store.Create(ctx, st); err != nil {
		return nil, storeError(err)
	}
	s.log.WithContext(ctx).Info("wizard session started", "session_id", st.SessionID.String())
	return st, nil
}

// Get returns a session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	return s.load(ctx, id)
}

// Reset discards a session.
func (s *Service) Reset(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return storeError(err)
	}
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	s.log.WithContext(ctx).Info("wizard session reset", "session_id", id.String())
	return nil
}

// UpdateTrip replaces the trip details. It is only allowed on the first
// step. A changed trip invalidates fetched quotes and the selection.
func (s *Service) UpdateTrip(ctx context.Context, id uuid.UUID, req transport.UpdateTripRequest) (*domain.State, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Phase != domain.PhaseTripDetails {
			return apperr.Conflict("trip details can only be changed on the first step")
		}
		if req.Travelers < domain.MinTravelers || req.Travelers > domain.MaxTravelers {
			return apperr.Validation("between 1 and 10 travelers can be insured")
		}

		st.Trip = domain.TripRequest{
			Destination:      sanitize.Text(req.Destination),
			ResidenceCountry: sanitize.Text(req.ResidenceCountry),
			PolicyType:       sanitize.Text(req.PolicyType),
			StartDate:        strings.TrimSpace(req.StartDate),
			EndDate:          strings.TrimSpace(req.EndDate),
			Travelers:        req.Travelers,
		}
		st.Travelers = domain.ResizeTravelers(st.Travelers, req.Travelers)

		if st.QuotesFingerprint != "" && st.QuotesFingerprint != st.Trip.Fingerprint() {
			st.ClearQuotes()
			st.Processing = nil
		}
		return nil
	})
}

// UpdateTravelers replaces the traveler list.
func (s *Service) UpdateTravelers(ctx context.Context, id uuid.UUID, req transport.UpdateTravelersRequest) (*domain.State, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Finalized() {
			return errFinalized()
		}
		if len(req.Travelers) != st.Trip.Travelers {
			return apperr.Validation("the number of travelers does not match the trip").WithDetails(map[string]int{
				"expected": st.Trip.Travelers,
				"received": len(req.Travelers),
			})
		}

		travelers := make([]domain.Traveler, 0, len(req.Travelers))
		for i, t := range req.Travelers {
			tr := domain.Traveler{
				Title:       sanitize.Text(t.Title),
				FirstName:   sanitize.Text(t.FirstName),
				LastName:    sanitize.Text(t.LastName),
				DateOfBirth: strings.TrimSpace(t.DateOfBirth),
				Age:         t.Age,
				Nationality: sanitize.Text(t.Nationality),
				TaxID:       strings.ToUpper(strings.TrimSpace(t.TaxID)),
				Email:       strings.ToLower(strings.TrimSpace(t.Email)),
			}
			if i == 0 {
				tr.Phone = strings.TrimSpace(t.Phone)
			}
			travelers = append(travelers, tr)
		}
		st.Travelers = travelers
		return nil
	})
}

// UpdateBilling replaces the billing address.
func (s *Service) UpdateBilling(ctx context.Context, id uuid.UUID, req transport.UpdateBillingRequest) (*domain.State, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Finalized() {
			return errFinalized()
		}
		st.Billing = domain.Billing{
			AddressLine: sanitize.Text(req.AddressLine),
			City:        sanitize.Text(req.City),
			PostalCode:  strings.ToUpper(sanitize.Text(req.PostalCode)),
			Country:     sanitize.Text(req.Country),
		}
		return nil
	})
}

// UpdatePayment validates the card and stores the cardholder, the last four
// digits and the expiry. Terms acceptance and screening answers travel with
// the payment submission.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, req transport.UpdatePaymentRequest) (*domain.State, error) {
	card, err := validateCard(req.CardNumber, req.Expiry, req.CVV, s.now())
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Finalized() {
			return errFinalized()
		}
		st.Payment = domain.Payment{
			CardholderName: sanitize.Text(req.CardholderName),
			CardLast4:      card.last4,
			Expiry:         card.expiry,
		}
		if req.TermsAccepted != nil {
			st.TermsAccepted = *req.TermsAccepted
		}
		if req.ScreeningAnswers != nil {
			st.ScreeningAnswers = append([]pricingtransport.ScreeningAnswer(nil), req.ScreeningAnswers...)
		}
		return nil
	})
}

// AcceptTerms sets the terms-acceptance checkbox.
func (s *Service) AcceptTerms(ctx context.Context, id uuid.UUID, accepted bool) (*domain.State, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Finalized() {
			return errFinalized()
		}
		st.TermsAccepted = accepted
		return nil
	})
}

// SelectQuote selects one of the fetched quotes. Switching to another quote
// drops every attached add-on and the authoritative total.
func (s *Service) SelectQuote(ctx context.Context, id uuid.UUID, quoteID string) (*domain.State, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		if st.Finalized() {
			return errFinalized()
		}
		if st.Phase != domain.PhaseQuotes {
			return apperr.Conflict("a quote can only be selected on the quotes step")
		}
		q, ok := st.FindQuote(quoteID)
		if !ok {
			return apperr.NotFound("quote option not found")
		}
		if st.Selected != nil && st.Selected.ID == q.ID {
			return nil
		}
		st.SelectQuote(q)
		st.Processing = nil
		return nil
	})
}

// Advance moves to the next phase when the current phase is valid and runs
// the entry side effects of the next phase. Leaving Payment finalizes the
// policy.
func (s *Service) Advance(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CanAdvance(st, s.emails); err != nil {
		return nil, err
	}

	from := st.Phase
	if from == domain.PhasePayment {
		return s.finalize(ctx, st)
	}

	next, _ := from.Next()
	switch next {
	case domain.PhaseQuotes:
		s.enterQuotes(ctx, st)
	case domain.PhaseAddOns:
		if err := s.enterAddOns(ctx, st); err != nil {
			return nil, err
		}
	}
	st.Phase = next

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).WizardTransition(id.String(), from.String(), next.String())
	return st, nil
}

// Retreat moves to the previous phase. It has no other effect.
func (s *Service) Retreat(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	var from domain.Phase
	st, err := s.mutate(ctx, id, func(st *domain.State) error {
		if st.Phase == domain.PhaseDocuments {
			return errFinalized()
		}
		prev, ok := st.Phase.Prev()
		if !ok {
			return apperr.Validation("already at the first step")
		}
		from = st.Phase
		st.Phase = prev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).WizardTransition(id.String(), from.String(), st.Phase.String())
	return st, nil
}

// ScreeningQuestions lists the disclosure questions of the selected quote.
func (s *Service) ScreeningQuestions(ctx context.Context, id uuid.UUID) ([]pricingtransport.ScreeningQuestion, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Selected == nil {
		return nil, apperr.Validation("select a quote first")
	}
	if st.Selected.IsFallback {
		return []pricingtransport.ScreeningQuestion{}, nil
	}
	return s.pricing.ScreeningQuestions(ctx, st.Selected.ProviderQuoteID)
}

// enterQuotes fetches quotes unless they are current for the trip, then
// preselects a default option when nothing is selected.
func (s *Service) enterQuotes(ctx context.Context, st *domain.State) {
	if st.QuotesStale() {
		list := s.pricing.Quotes(ctx, s.pricingRequest(st, true))
		st.ClearQuotes()
		st.Quotes = list.Options
		st.QuotesFallback = list.Fallback
		st.QuotesNotice = list.Notice
		st.QuotesFingerprint = st.Trip.Fingerprint()
		st.Processing = nil

		s.publish(ctx, events.QuotesFetched{
			BaseEvent: events.NewBaseEvent(),
			SessionID: st.SessionID,
			Count:     len(list.Options),
			Fallback:  list.Fallback,
		})
	}

	if st.Selected == nil {
		if i := domain.PreselectQuote(st.Quotes); i >= 0 {
			st.SelectQuote(st.Quotes[i])
		}
	}
}

// enterAddOns loads the add-on catalog of the selected quote's policy type.
func (s *Service) enterAddOns(ctx context.Context, st *domain.State) error {
	if st.Selected == nil {
		return apperr.Validation("select a quote to continue")
	}
	name := st.Selected.PolicyTypeName
	if name == "" {
		name = st.Trip.PolicyType
	}
	if st.AddonCatalogKey == name && len(st.AvailableAddons) > 0 {
		return nil
	}

	catalog := s.refdata.AddonCatalog(ctx, name)
	addons := make([]domain.AddOn, 0, len(catalog.Addons))
	for _, a := range catalog.Addons {
		if a.AlterationID == "" {
			continue
		}
		addons = append(addons, toAddOn(a))
	}
	st.AvailableAddons = addons
	st.AddonCatalogKey = name
	st.AddonCatalogMatched = catalog.Matched
	return nil
}
