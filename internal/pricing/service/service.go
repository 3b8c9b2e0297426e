// Package service wraps the quoting provider with logging, ranking,
// fallback and error classification.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"travel_portal_backend/internal/pricing"
	"travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/logger"
)

// QuoteList is the result of an initial pricing call.
type QuoteList struct {
	Options  []transport.QuoteOption
	Fallback bool
	Notice   string
}

// Service is the pricing entry point used by the wizard.
type Service struct {
	provider pricing.Provider
	log      *logger.Logger
}

// New creates a pricing service around provider.
func New(provider pricing.Provider, log *logger.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// Quotes prices a trip. Provider failures and empty answers are replaced by
// the labelled fallback set, so the result always holds at least one option.
func (s *Service) Quotes(ctx context.Context, req transport.QuoteRequest) QuoteList {
	start := time.Now()
	options, err := s.provider.GetQuotes(ctx, req)
	s.log.WithContext(ctx).ProviderCall("GetQuotes", time.Since(start), err)

	if err != nil {
		return QuoteList{Options: FallbackQuotes(), Fallback: true, Notice: FallbackNotice}
	}
	if len(options) == 0 {
		s.log.WithContext(ctx).Warn("provider returned no quotes, using fallback set", "destination", req.Trip.Destination)
		return QuoteList{Options: FallbackQuotes(), Fallback: true, Notice: FallbackNotice}
	}
	return QuoteList{Options: RankQuotes(options)}
}

// FreshQuotes prices a trip without ranking or fallback. Finalization uses it
// to bind a provider quote id to the customer's real data.
func (s *Service) FreshQuotes(ctx context.Context, req transport.QuoteRequest) ([]transport.QuoteOption, error) {
	start := time.Now()
	options, err := s.provider.GetQuotes(ctx, req)
	s.log.WithContext(ctx).ProviderCall("GetQuotes", time.Since(start), err)
	if err != nil {
		return nil, classify("GetQuotes", err)
	}
	return options, nil
}

// Reprice re-prices quoteID with the cumulative alteration ids, in attachment order.
// The returned option is authoritative for the new total.
func (s *Service) Reprice(ctx context.Context, quoteID string, alterationIDs []string, req transport.QuoteRequest) (*transport.QuoteOption, error) {
	joined := strings.Join(alterationIDs, ",")

	start := time.Now()
	options, err := s.provider.RepriceWithAlterations(ctx, quoteID, joined, req)
	s.log.WithContext(ctx).ProviderCall("GetQuotesWithAlterations", time.Since(start), err)
	if err != nil {
		return nil, classify("GetQuotesWithAlterations", err)
	}
	if len(options) == 0 {
		return nil, apperr.New(apperr.KindUpstream, "quoting service returned no price for the selected add-ons").
			WithOp("GetQuotesWithAlterations")
	}
	first := options[0]
	return &first, nil
}

// Finalize saves the policy. A call that returns without the saved flag or
// a policy id is reported as an upstream error.
func (s *Service) Finalize(ctx context.Context, quoteID string, answers []transport.ScreeningAnswer, req transport.QuoteRequest) (*transport.FinalizeResult, error) {
	start := time.Now()
	result, err := s.provider.FinalizePolicy(ctx, quoteID, answers, req)
	s.log.WithContext(ctx).ProviderCall("SaveIssuedPolicy", time.Since(start), err)
	if err != nil {
		return nil, classify("SaveIssuedPolicy", err)
	}
	if result == nil || !result.Saved || strings.TrimSpace(result.PolicyID) == "" {
		return nil, apperr.Wrap(apperr.KindUpstream, "policy not saved", pricing.ErrPolicyNotSaved).WithOp("SaveIssuedPolicy")
	}
	return result, nil
}

// EmailDocuments asks the provider to email the documents. Failures are
// logged and reported as false; they never fail the caller.
func (s *Service) EmailDocuments(ctx context.Context, policyID, email string) bool {
	start := time.Now()
	result, err := s.provider.EmailDocuments(ctx, policyID, email)
	s.log.WithContext(ctx).ProviderCall("EmailDocuments", time.Since(start), err)
	if err != nil {
		return false
	}
	if result == nil || !result.Sent {
		s.log.WithContext(ctx).Warn("provider did not send policy documents", "policy_id", policyID)
		return false
	}
	return true
}

// ScreeningQuestions lists the disclosure questions for quoteID.
func (s *Service) ScreeningQuestions(ctx context.Context, quoteID string) ([]transport.ScreeningQuestion, error) {
	start := time.Now()
	questions, err := s.provider.GetScreeningQuestions(ctx, quoteID)
	s.log.WithContext(ctx).ProviderCall("GetScreeningQuestions", time.Since(start), err)
	if err != nil {
		return nil, classify("GetScreeningQuestions", err)
	}
	return questions, nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, pricing.ErrProviderRejected):
		return apperr.Wrap(apperr.KindUpstream, "quoting service rejected the request", err).
			WithOp(op).
			WithDetails(map[string]string{"operation": op})
	case errors.Is(err, pricing.ErrProviderUnavailable), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindUnavailable, "quoting service unavailable, please retry", err).
			WithOp(op).
			WithDetails(map[string]string{"operation": op})
	default:
		return apperr.Wrap(apperr.KindInternal, "pricing failed", err).WithOp(op)
	}
}
