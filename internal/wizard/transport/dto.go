// Package transport holds the HTTP request and response shapes of the wizard.
package transport

import (
	"time"

	pricingtransport "travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/internal/wizard/domain"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// UpdateTripRequest replaces the trip details. Fields may be empty while the
// customer is still typing; completeness is checked when advancing.
type UpdateTripRequest struct {
	Destination      string `json:"destination" validate:"max=100"`
	ResidenceCountry string `json:"residenceCountry" validate:"max=100"`
	PolicyType       string `json:"policyType" validate:"max=100"`
	StartDate        string `json:"startDate" validate:"omitempty,isodate"`
	EndDate          string `json:"endDate" validate:"omitempty,isodate"`
	Travelers        int    `json:"travelers" validate:"required,min=1,max=10"`
}

// TravelerRequest is one traveler of an UpdateTravelersRequest.
type TravelerRequest struct {
	Title       string `json:"title" validate:"max=20"`
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,isodate"`
	Age         *int   `json:"age" validate:"omitempty,min=0,max=120"`
	Nationality string `json:"nationality" validate:"max=100"`
	TaxID       string `json:"taxId" validate:"max=32"`
	Email       string `json:"email" validate:"max=254"`
	Phone       string `json:"phone" validate:"max=32"`
}

// UpdateTravelersRequest replaces the traveler list. Its length must match
// the trip's traveler count.
type UpdateTravelersRequest struct {
	Travelers []TravelerRequest `json:"travelers" validate:"required,min=1,max=10,dive"`
}

// UpdateBillingRequest replaces the billing address.
type UpdateBillingRequest struct {
	AddressLine string `json:"addressLine" validate:"max=200"`
	City        string `json:"city" validate:"max=100"`
	PostalCode  string `json:"postalCode" validate:"max=20"`
	Country     string `json:"country" validate:"max=100"`
}

// UpdatePaymentRequest carries the card details. Only the cardholder, the
// last four digits and the expiry are kept.
type UpdatePaymentRequest struct {
	CardholderName   string                             `json:"cardholderName" validate:"required,max=100"`
	CardNumber       string                             `json:"cardNumber" validate:"required,max=32"`
	Expiry           string                             `json:"expiry" validate:"required,max=7"`
	CVV              string                             `json:"cvv" validate:"required,max=4"`
	TermsAccepted    *bool                              `json:"termsAccepted"`
	ScreeningAnswers []pricingtransport.ScreeningAnswer `json:"screeningAnswers" validate:"omitempty,dive"`
}

// AcceptTermsRequest sets the terms-acceptance checkbox.
type AcceptTermsRequest struct {
	Accepted bool `json:"accepted"`
}

// SelectQuoteRequest selects a quote option by id.
type SelectQuoteRequest struct {
	QuoteID string `json:"quoteId" validate:"required,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// PaymentView is the stored payment shown back to the customer.
type PaymentView struct {
	CardholderName string `json:"cardholderName"`
	MaskedCard     string `json:"maskedCard,omitempty"`
	Expiry         string `json:"expiry"`
}

// SessionResponse is the wizard state as rendered by the UI.
type SessionResponse struct {
	ID                      uuid.UUID                          `json:"id"`
	Phase                   string                             `json:"phase"`
	Step                    int                                `json:"step"`
	Trip                    domain.TripRequest                 `json:"trip"`
	Travelers               []domain.Traveler                  `json:"travelers"`
	Quotes                  []pricingtransport.QuoteOption     `json:"quotes"`
	QuotesFallback          bool                               `json:"quotesFallback"`
	QuotesNotice            string                             `json:"quotesNotice,omitempty"`
	Selected                *pricingtransport.QuoteOption      `json:"selected,omitempty"`
	AvailableAddons         []domain.AddOn                     `json:"availableAddons"`
	AddonCatalogMatched     bool                               `json:"addonCatalogMatched"`
	Attached                []domain.AddOn                     `json:"attachedAddons"`
	AuthoritativeTotalCents *int64                             `json:"authoritativeTotalCents"`
	DisplayedTotalCents     int64                              `json:"displayedTotalCents"`
	Currency                string                             `json:"currency,omitempty"`
	ProcessingAddonID       string                             `json:"processingAddonId,omitempty"`
	Billing                 domain.Billing                     `json:"billing"`
	Payment                 PaymentView                        `json:"payment"`
	TermsAccepted           bool                               `json:"termsAccepted"`
	ScreeningAnswers        []pricingtransport.ScreeningAnswer `json:"screeningAnswers,omitempty"`
	PolicyNumber            string                             `json:"policyNumber,omitempty"`
	Documents               pricingtransport.DocumentURLs      `json:"documents"`
	DocumentsEmailed        bool                               `json:"documentsEmailed"`
	Notices                 []string                           `json:"notices,omitempty"`
	CanAdvance              bool                               `json:"canAdvance"`
	Violations              []domain.FieldError                `json:"violations,omitempty"`
	ScrollToTop             bool                               `json:"scrollToTop,omitempty"`
	ExpiresAt               time.Time                          `json:"expiresAt"`
}

// StartSessionResponse is returned when a wizard session is created.
type StartSessionResponse struct {
	Token          string          `json:"token"`
	TokenExpiresAt time.Time       `json:"tokenExpiresAt"`
	Session        SessionResponse `json:"session"`
}

// ScreeningQuestionsResponse lists the questions to answer before payment.
type ScreeningQuestionsResponse struct {
	Questions []pricingtransport.ScreeningQuestion `json:"questions"`
}

// DocumentsResponse lists the documents of an issued policy.
type DocumentsResponse struct {
	PolicyNumber string                        `json:"policyNumber"`
	Documents    pricingtransport.DocumentURLs `json:"documents"`
	Emailed      bool                          `json:"emailed"`
	// SummaryAvailable is set when an authoritative document is missing and
	// the locally generated summary is offered instead.
	SummaryAvailable bool   `json:"summaryAvailable"`
	SummaryURL       string `json:"summaryUrl,omitempty"`
}

// NewSessionResponse renders st. violations are the unmet requirements of
// the current phase.
func NewSessionResponse(st *domain.State, violations []domain.FieldError) SessionResponse {
	total, currency := domain.DisplayedTotal(st)
	resp := SessionResponse{
		ID:                      st.SessionID,
		Phase:                   st.Phase.String(),
		Step:                    int(st.Phase),
		Trip:                    st.Trip,
		Travelers:               st.Travelers,
		Quotes:                  st.Quotes,
		QuotesFallback:          st.QuotesFallback,
		QuotesNotice:            st.QuotesNotice,
		Selected:                st.Selected,
		AvailableAddons:         st.AvailableAddons,
		AddonCatalogMatched:     st.AddonCatalogMatched,
		Attached:                st.Attached,
		AuthoritativeTotalCents: st.AuthoritativeTotalCents,
		DisplayedTotalCents:     total,
		Currency:                currency,
		Billing:                 st.Billing,
		Payment: PaymentView{
			CardholderName: st.Payment.CardholderName,
			Expiry:         st.Payment.Expiry,
		},
		TermsAccepted:    st.TermsAccepted,
		ScreeningAnswers: st.ScreeningAnswers,
		PolicyNumber:     st.PolicyNumber,
		Documents:        st.Documents,
		DocumentsEmailed: st.DocumentsEmailed,
		Notices:          st.Notices,
		Violations:       violations,
		ExpiresAt:        st.ExpiresAt,
	}
	if st.Payment.CardLast4 != "" {
		resp.Payment.MaskedCard = "•••• " + st.Payment.CardLast4
	}
	if st.Processing != nil {
		resp.ProcessingAddonID = st.Processing.AddonID
	}
	_, hasNext := st.Phase.Next()
	resp.CanAdvance = hasNext && len(violations) == 0
	return resp
}
