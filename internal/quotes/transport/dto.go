package transport

import (
	"time"

	"github.com/google/uuid"
)

// Line kinds of a quote record.
const (
	LineKindBase  = "base"
	LineKindAddon = "addon"
)

// TravelerSnapshot is the traveler data persisted with a quote record.
type TravelerSnapshot struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Age         int    `json:"age"`
	Nationality string `json:"nationality,omitempty"`
}

// DraftLine is one priced line of a draft. Add-on lines whose catalog price
// is unknown are recorded with PriceKnown false and do not count towards the
// computed total.
type DraftLine struct {
	Kind         string `json:"kind"`
	Description  string `json:"description"`
	AlterationID string `json:"alterationId,omitempty"`
	PriceCents   int64  `json:"priceCents"`
	PriceKnown   bool   `json:"priceKnown"`
}

// Draft is what the wizard submits before the policy is issued. ID is nil
// for the first save of a session.
type Draft struct {
	ID               *uuid.UUID         `json:"id,omitempty"`
	SessionID        uuid.UUID          `json:"sessionId"`
	Destination      string             `json:"destination"`
	ResidenceCountry string             `json:"residenceCountry"`
	PolicyType       string             `json:"policyType"`
	StartDate        time.Time          `json:"startDate"`
	EndDate          time.Time          `json:"endDate"`
	Travelers        []TravelerSnapshot `json:"travelers"`
	HolderEmail      string             `json:"holderEmail"`
	QuoteName        string             `json:"quoteName"`
	SchemeID         string             `json:"schemeId"`
	PolicyTypeName   string             `json:"policyTypeName"`
	Currency         string             `json:"currency"`
	Lines            []DraftLine        `json:"lines"`
	// TotalCents overrides the sum of known line prices when set.
	TotalCents *int64 `json:"totalCents,omitempty"`
}

// SavedDraft identifies a persisted draft.
type SavedDraft struct {
	ID         uuid.UUID `json:"id"`
	Reference  string    `json:"reference"`
	TotalCents int64     `json:"totalCents"`
}

// PaymentRecord is the payment written once a policy is issued.
type PaymentRecord struct {
	QuoteID        uuid.UUID `json:"quoteId"`
	AmountCents    int64     `json:"amountCents"`
	Currency       string    `json:"currency"`
	CardholderName string    `json:"cardholderName"`
	CardLast4      string    `json:"cardLast4"`
	PolicyNumber   string    `json:"policyNumber"`
}

// QuoteRecordResponse is the read model of a quote record.
type QuoteRecordResponse struct {
	ID              uuid.UUID `json:"id"`
	Reference       string    `json:"reference"`
	Status          string    `json:"status"`
	QuoteName       string    `json:"quoteName"`
	TotalCents      int64     `json:"totalCents"`
	Currency        string    `json:"currency"`
	ProviderQuoteID *string   `json:"providerQuoteId,omitempty"`
	PolicyNumber    *string   `json:"policyNumber,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
