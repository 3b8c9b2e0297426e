package service

import (
	"context"
	"errors"
	"strings"

	"travel_portal_backend/internal/events"
	"travel_portal_backend/internal/pricing"
	pricingtransport "travel_portal_backend/internal/pricing/transport"
	quotestransport "travel_portal_backend/internal/quotes/transport"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/platform/apperr"
)

const (
	stageDraft    = "save_quote"
	stageQuote    = "fresh_quote"
	stageReprice  = "reprice"
	stageFinalize = "save_policy"
)

const emailNotice = "Your documents could not be emailed right now. You can download them below."

// finalize issues the policy for a session whose Payment phase is valid.
// The caller holds the session lock. On failure the session stays on
// Payment with all entered data, so the customer can resubmit.
func (s *Service) finalize(ctx context.Context, st *domain.State) (*domain.State, error) {
	if st.Finalized() {
		return nil, errFinalized()
	}
	if violations := domain.SubmissionViolations(st, s.emails, s.opts.VATCountries); len(violations) > 0 {
		return nil, apperr.Validation(violations[0].Message).WithDetails(map[string]interface{}{
			"phase":  st.Phase.String(),
			"fields": violations,
		})
	}
	if st.Processing != nil && s.now().Sub(st.Processing.StartedAt) < processingTTL {
		return nil, apperr.Conflict("an add-on change is still being priced")
	}
	if st.Selected.IsFallback {
		return nil, apperr.New(apperr.KindUnavailable, "live pricing is unavailable, sample quotes cannot be purchased")
	}

	log := s.log.WithContext(ctx).WithSessionID(st.SessionID.String())
	req := s.pricingRequest(st, false)

	fail := func(stage string, err error) (*domain.State, error) {
		log.Warn("policy finalization failed", "stage", stage, "error", err)
		if saveErr := s.save(ctx, st); saveErr != nil {
			log.Error("failed to save session after finalization failure", "error", saveErr)
		}
		return nil, finalizationError(stage, err)
	}

	saved, err := s.records.SaveDraft(ctx, s.draft(st))
	if err != nil {
		return fail(stageDraft, err)
	}
	recordID := saved.ID
	st.QuoteRecordID = &recordID

	fresh, err := s.pricing.FreshQuotes(ctx, req)
	if err != nil {
		return fail(stageQuote, err)
	}
	match, ok := s.matchQuote(fresh, st.Selected)
	if !ok {
		return fail(stageQuote, apperr.New(apperr.KindUpstream, "the selected cover is no longer offered for these travelers"))
	}
	supersedeSelection(st, match)

	quoteID := match.ProviderQuoteID
	total := match.PriceCents
	if len(st.Attached) > 0 {
		repriced, err := s.pricing.Reprice(ctx, quoteID, domain.AlterationIDs(st.Attached), req)
		if err != nil {
			return fail(stageReprice, err)
		}
		if repriced.ProviderQuoteID != "" {
			quoteID = repriced.ProviderQuoteID
		}
		total = repriced.PriceCents
		st.AuthoritativeTotalCents = &total
	}
	st.ProviderQuoteID = quoteID

	result, err := s.pricing.Finalize(ctx, quoteID, st.ScreeningAnswers, req)
	if err != nil {
		return fail(stageFinalize, err)
	}

	// The policy is issued from here on; backend bookkeeping failures are
	// logged and never undo the transition.
	st.PolicyNumber = result.PolicyID
	st.Documents = result.Documents
	currency := match.Currency
	if currency == "" {
		currency = st.Selected.Currency
	}

	if err := s.records.RecordPayment(ctx, quotestransport.PaymentRecord{
		QuoteID:        recordID,
		AmountCents:    total,
		Currency:       currency,
		CardholderName: st.Payment.CardholderName,
		CardLast4:      st.Payment.CardLast4,
		PolicyNumber:   result.PolicyID,
	}); err != nil {
		log.Error("failed to record payment", "policy_number", result.PolicyID, "error", err)
	}
	if err := s.records.MarkIssued(ctx, recordID, quoteID, result.PolicyID, total); err != nil {
		log.Error("failed to attach policy number to quote record", "policy_number", result.PolicyID, "error", err)
	}

	holder := st.Holder()
	st.DocumentsEmailed = s.pricing.EmailDocuments(ctx, result.PolicyID, holder.Email)
	if !st.DocumentsEmailed {
		addNotice(st, emailNotice)
	}
	removeNotice(st, repriceNotice)

	from := st.Phase
	st.Phase = domain.PhaseDocuments
	if err := s.save(ctx, st); err != nil {
		log.Error("failed to save issued session", "policy_number", result.PolicyID, "error", err)
		return nil, err
	}
	log.WizardTransition(st.SessionID.String(), from.String(), st.Phase.String())
	log.Info("policy issued", "policy_number", result.PolicyID, "total_cents", total)

	s.publish(ctx, events.PolicyFinalized{
		BaseEvent:       events.NewBaseEvent(),
		SessionID:       st.SessionID,
		QuoteRecordID:   st.QuoteRecordID,
		PolicyNumber:    result.PolicyID,
		ProviderQuoteID: quoteID,
		HolderName:      strings.TrimSpace(holder.FirstName + " " + holder.LastName),
		HolderEmail:     holder.Email,
		QuoteName:       st.Selected.Name,
		TotalCents:      total,
		Currency:        currency,
		ProviderEmailed: st.DocumentsEmailed,
		Summary:         s.summaryData(st),
	})
	return st, nil
}

// matchQuote finds the freshly priced counterpart of the selected quote: by
// scheme id first, then by canonical policy-type name.
func (s *Service) matchQuote(fresh []pricingtransport.QuoteOption, selected *pricingtransport.QuoteOption) (pricingtransport.QuoteOption, bool) {
	if selected.SchemeID != "" {
		for _, q := range fresh {
			if q.SchemeID == selected.SchemeID {
				return q, true
			}
		}
	}

	want, _ := s.refdata.NormalizePolicyTypeName(selected.PolicyTypeName)
	if want == "" {
		return pricingtransport.QuoteOption{}, false
	}
	for _, q := range fresh {
		got, _ := s.refdata.NormalizePolicyTypeName(q.PolicyTypeName)
		if strings.EqualFold(got, want) {
			return q, true
		}
	}
	return pricingtransport.QuoteOption{}, false
}

// supersedeSelection replaces the price and provider identifiers of the
// selected quote with the fresh one, keeping its wizard ID.
func supersedeSelection(st *domain.State, fresh pricingtransport.QuoteOption) {
	apply := func(q *pricingtransport.QuoteOption) {
		q.PriceCents = fresh.PriceCents
		q.ProviderQuoteID = fresh.ProviderQuoteID
		if fresh.SchemeID != "" {
			q.SchemeID = fresh.SchemeID
		}
		if fresh.Currency != "" {
			q.Currency = fresh.Currency
		}
	}
	for i := range st.Quotes {
		if st.Quotes[i].ID == st.Selected.ID {
			apply(&st.Quotes[i])
		}
	}
	apply(st.Selected)
}

// draft builds the quote record of the session's current selection.
func (s *Service) draft(st *domain.State) quotestransport.Draft {
	start, end, _ := st.Trip.Dates()
	travelers := make([]quotestransport.TravelerSnapshot, 0, len(st.Travelers))
	for _, t := range st.Travelers {
		age, _ := t.AgeOn(start)
		travelers = append(travelers, quotestransport.TravelerSnapshot{
			FirstName:   t.FirstName,
			LastName:    t.LastName,
			DateOfBirth: t.DateOfBirth,
			Age:         age,
			Nationality: t.Nationality,
		})
	}

	lines := []quotestransport.DraftLine{{
		Kind:        quotestransport.LineKindBase,
		Description: st.Selected.Name,
		PriceCents:  st.Selected.PriceCents,
		PriceKnown:  true,
	}}
	for _, a := range st.Attached {
		lines = append(lines, quotestransport.DraftLine{
			Kind:         quotestransport.LineKindAddon,
			Description:  a.Name,
			AlterationID: a.AlterationID,
			PriceCents:   a.PriceCents,
			PriceKnown:   a.PriceKnown,
		})
	}

	d := quotestransport.Draft{
		ID:               st.QuoteRecordID,
		SessionID:        st.SessionID,
		Destination:      st.Trip.Destination,
		ResidenceCountry: st.Trip.ResidenceCountry,
		PolicyType:       st.Trip.PolicyType,
		StartDate:        start,
		EndDate:          end,
		Travelers:        travelers,
		HolderEmail:      st.Holder().Email,
		QuoteName:        st.Selected.Name,
		SchemeID:         st.Selected.SchemeID,
		PolicyTypeName:   st.Selected.PolicyTypeName,
		Currency:         st.Selected.Currency,
		Lines:            lines,
	}
	if st.AuthoritativeTotalCents != nil && len(st.Attached) > 0 {
		total := *st.AuthoritativeTotalCents
		d.TotalCents = &total
	}
	return d
}

// finalizationError tells the customer whether the policy save was reached.
func finalizationError(stage string, err error) error {
	details := map[string]interface{}{
		"stage":     stage,
		"retryable": true,
	}
	if errors.Is(err, pricing.ErrPolicyNotSaved) {
		return apperr.Wrap(apperr.KindUpstream, "Policy not saved: the insurer did not confirm your policy. Your payment was not taken, please try again.", err).
			WithOp("finalize").
			WithDetails(details)
	}

	kind := apperr.KindUpstream
	if apperr.GetKind(err) == apperr.KindUnavailable {
		kind = apperr.KindUnavailable
	}
	return apperr.Wrap(kind, "Payment not charged: we could not issue your policy. Please try again.", err).
		WithOp("finalize").
		WithDetails(details)
}
