// Package pricing provides the quoting provider bounded context.
// This file defines the provider contract and its error values.
package pricing

import (
	"context"
	"errors"

	"travel_portal_backend/internal/pricing/transport"
)

var (
	// ErrProviderUnavailable marks transport failures: timeouts, refused
	// connections, non-2xx responses, unreadable bodies.
	ErrProviderUnavailable = errors.New("quoting provider unavailable")
	// ErrProviderRejected marks SOAP faults returned by the provider.
	ErrProviderRejected = errors.New("quoting provider rejected request")
	// ErrPolicyNotSaved marks a save-policy call that returned without the
	// saved flag or a policy id.
	ErrPolicyNotSaved = errors.New("policy not saved")
)

// ProviderError carries the failed operation and the underlying cause.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider is the quoting service contract. An empty result is not an error.
type Provider interface {
	// GetQuotes prices a trip.
	GetQuotes(ctx context.Context, req transport.QuoteRequest) ([]transport.QuoteOption, error)
	// RepriceWithAlterations re-prices quoteID with a comma-joined cumulative
	// alteration id list. The first option's price is the new total.
	RepriceWithAlterations(ctx context.Context, quoteID, alterationIDs string, req transport.QuoteRequest) ([]transport.QuoteOption, error)
	// FinalizePolicy saves an issued policy against quoteID.
	FinalizePolicy(ctx context.Context, quoteID string, answers []transport.ScreeningAnswer, req transport.QuoteRequest) (*transport.FinalizeResult, error)
	// EmailDocuments asks the provider to email the policy documents.
	EmailDocuments(ctx context.Context, policyID, email string) (*transport.EmailResult, error)
	// GetScreeningQuestions lists the questions to answer before finalization.
	GetScreeningQuestions(ctx context.Context, quoteID string) ([]transport.ScreeningQuestion, error)
}
