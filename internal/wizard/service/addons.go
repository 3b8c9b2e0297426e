package service

import (
	"context"

	pricingtransport "travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

const repriceNotice = "We could not confirm the new price after removing an add-on. The final price is confirmed before payment."

// addonChange is an add-on mutation claimed under the session lock. The
// re-pricing call runs without the lock and is settled against the token.
type addonChange struct {
	token       string
	selectedID  string
	baseQuoteID string
	ids         []string
	req         pricingtransport.QuoteRequest
}

// AddAddon attaches a catalog add-on. The add-on is committed only when the
// provider re-priced the full alteration list; on failure the attached set
// is unchanged.
func (s *Service) AddAddon(ctx context.Context, id uuid.UUID, addonID string) (*domain.State, error) {
	var (
		change addonChange
		addon  domain.AddOn
		noop   bool
	)
	st, err := s.mutate(ctx, id, func(st *domain.State) error {
		if err := s.checkAddonChange(st); err != nil {
			return err
		}
		a, ok := st.FindAvailableAddon(addonID)
		if !ok {
			return apperr.NotFound("add-on not found for the selected quote")
		}
		if st.AttachedIndex(addonID) >= 0 {
			noop = true
			return nil
		}
		addon = a
		change = s.claim(st, addonID, append(domain.AlterationIDs(st.Attached), a.AlterationID))
		return nil
	})
	if err != nil || noop {
		return st, err
	}

	option, priceErr := s.pricing.Reprice(ctx, change.baseQuoteID, change.ids, change.req)

	return s.settle(ctx, id, change, func(st *domain.State) error {
		if priceErr != nil {
			s.log.WithContext(ctx).Warn("add-on re-pricing failed, add-on not attached",
				"session_id", id.String(), "addon_id", addonID, "error", priceErr)
			return priceErr
		}
		st.Attached = append(st.Attached, addon)
		applyReprice(st, option)
		return nil
	})
}

// RemoveAddon detaches an add-on. Removing the last add-on reverts to the
// base price without a provider call. Otherwise the remaining list is
// re-priced; a failed re-pricing keeps the add-on removed.
func (s *Service) RemoveAddon(ctx context.Context, id uuid.UUID, addonID string) (*domain.State, error) {
	var (
		change addonChange
		priced bool
	)
	st, err := s.mutate(ctx, id, func(st *domain.State) error {
		if err := s.checkAddonChange(st); err != nil {
			return err
		}
		idx := st.AttachedIndex(addonID)
		if idx < 0 {
			return apperr.NotFound("add-on is not attached")
		}
		st.Attached = append(st.Attached[:idx:idx], st.Attached[idx+1:]...)
		if len(st.Attached) == 0 {
			st.AuthoritativeTotalCents = nil
			st.ProviderQuoteID = st.Selected.ProviderQuoteID
			removeNotice(st, repriceNotice)
			return nil
		}
		// The previous total still includes the removed add-on.
		st.AuthoritativeTotalCents = nil
		change = s.claim(st, addonID, domain.AlterationIDs(st.Attached))
		priced = true
		return nil
	})
	if err != nil || !priced {
		return st, err
	}

	option, priceErr := s.pricing.Reprice(ctx, change.baseQuoteID, change.ids, change.req)

	return s.settle(ctx, id, change, func(st *domain.State) error {
		if priceErr != nil {
			s.log.WithContext(ctx).Warn("add-on re-pricing failed after removal",
				"session_id", id.String(), "addon_id", addonID, "error", priceErr)
			st.AuthoritativeTotalCents = nil
			addNotice(st, repriceNotice)
			return nil
		}
		applyReprice(st, option)
		return nil
	})
}

func (s *Service) checkAddonChange(st *domain.State) error {
	if st.Finalized() {
		return errFinalized()
	}
	if st.Phase != domain.PhaseAddOns && st.Phase != domain.PhaseReview {
		return apperr.Conflict("add-ons can only be changed on the add-ons or review step")
	}
	if st.Selected == nil {
		return apperr.Validation("select a quote first")
	}
	if st.Selected.IsFallback {
		return apperr.New(apperr.KindUnavailable, "live pricing is unavailable, sample quotes cannot be changed")
	}
	if p := st.Processing; p != nil && s.now().Sub(p.StartedAt) < processingTTL {
		return apperr.Conflict("another add-on change is still being priced").WithDetails(map[string]string{
			"processingAddonId": p.AddonID,
		})
	}
	return nil
}

func (s *Service) claim(st *domain.State, addonID string, ids []string) addonChange {
	token := uuid.NewString()
	st.Processing = &domain.Processing{AddonID: addonID, Token: token, StartedAt: s.now()}
	return addonChange{
		token:       token,
		selectedID:  st.Selected.ID,
		baseQuoteID: st.Selected.ProviderQuoteID,
		ids:         ids,
		req:         s.pricingRequest(st, true),
	}
}

// settle reloads the session after a re-pricing call and applies the result
// unless the change was superseded. The marker is always released.
func (s *Service) settle(ctx context.Context, id uuid.UUID, change addonChange, apply func(st *domain.State) error) (*domain.State, error) {
	ctx = context.WithoutCancel(ctx)
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Processing == nil || st.Processing.Token != change.token {
		return nil, apperr.Conflict("the add-on change was superseded, please retry")
	}
	st.Processing = nil

	var result error
	if st.Selected == nil || st.Selected.ID != change.selectedID {
		s.log.WithContext(ctx).Info("discarding stale add-on price", "session_id", id.String())
		result = apperr.Conflict("the selected quote changed while the add-on was priced, the change was discarded")
	} else {
		result = apply(st)
	}

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	if result != nil {
		return nil, result
	}
	return st, nil
}

func applyReprice(st *domain.State, option *pricingtransport.QuoteOption) {
	total := option.PriceCents
	st.AuthoritativeTotalCents = &total
	if option.ProviderQuoteID != "" {
		st.ProviderQuoteID = option.ProviderQuoteID
	}
	removeNotice(st, repriceNotice)
}

func removeNotice(st *domain.State, notice string) {
	kept := st.Notices[:0]
	for _, n := range st.Notices {
		if n != notice {
			kept = append(kept, n)
		}
	}
	st.Notices = kept
}

