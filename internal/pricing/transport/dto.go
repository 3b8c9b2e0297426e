// Package transport holds the data exchanged with the quoting provider.
package transport

// Tier classifies a quote option.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Trip is the trip part of a pricing request. Dates use YYYY-MM-DD.
type Trip struct {
	Destination      string `json:"destination"`
	ResidenceCountry string `json:"residenceCountry"`
	PolicyType       string `json:"policyType"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
}

// Traveler is a traveler as sent to the provider.
type Traveler struct {
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Age         int    `json:"age"`
	Nationality string `json:"nationality,omitempty"`
	TaxID       string `json:"taxId,omitempty"`
}

// Contact is the policy holder's contact channel.
type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// QuoteRequest bundles everything a pricing call needs.
type QuoteRequest struct {
	Trip      Trip       `json:"trip"`
	Travelers []Traveler `json:"travelers"`
	Contact   Contact    `json:"contact"`
}

// Coverage summarizes the limits of a quote option.
type Coverage struct {
	MedicalCents      int64    `json:"medicalCents"`
	BaggageCents      int64    `json:"baggageCents"`
	CancellationCents int64    `json:"cancellationCents"`
	Activities        []string `json:"activities,omitempty"`
}

// QuoteOption is a priced offer. It is never mutated after creation.
type QuoteOption struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Tier              Tier     `json:"tier"`
	PriceCents        int64    `json:"priceCents"`
	Currency          string   `json:"currency"`
	Coverage          Coverage `json:"coverage"`
	Features          []string `json:"features,omitempty"`
	ProviderQuoteID   string   `json:"providerQuoteId"`
	SchemeID          string   `json:"schemeId,omitempty"`
	PolicyTypeName    string   `json:"policyTypeName"`
	Priority          int      `json:"priority"`
	BestBuy           bool     `json:"bestBuy"`
	SummaryOfCoverURL string   `json:"summaryOfCoverUrl,omitempty"`
	PolicyWordingURL  string   `json:"policyWordingUrl,omitempty"`
	IsFallback        bool     `json:"isFallback"`
}

// ScreeningQuestion is a yes/no disclosure question required before finalization.
type ScreeningQuestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ScreeningAnswer answers one ScreeningQuestion.
type ScreeningAnswer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     bool   `json:"answer"`
}

// DocumentURLs lists the documents of an issued policy. Any field may be empty.
type DocumentURLs struct {
	Certificate    string `json:"certificate,omitempty"`
	PolicyWording  string `json:"policyWording,omitempty"`
	SummaryOfCover string `json:"summaryOfCover,omitempty"`
	KeyFacts       string `json:"keyFacts,omitempty"`
	IPID           string `json:"ipid,omitempty"`
}

// FinalizeResult is the provider's answer to a save-policy call.
type FinalizeResult struct {
	Saved     bool         `json:"saved"`
	PolicyID  string       `json:"policyId"`
	Documents DocumentURLs `json:"documents"`
}

// EmailResult is the provider's answer to an email-documents call.
type EmailResult struct {
	Sent bool `json:"sent"`
}
