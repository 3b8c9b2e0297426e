package domain

import (
	"strconv"
	"strings"
	"time"

	pricingtransport "travel_portal_backend/internal/pricing/transport"

	"github.com/google/uuid"
)

const (
	// MinTravelers and MaxTravelers bound TripRequest.Travelers.
	MinTravelers = 1
	MaxTravelers = 10

	// DateLayout is the calendar date format of trip and birth dates.
	DateLayout = "2006-01-02"
)

// TripRequest describes the trip to be priced.
type TripRequest struct {
	Destination      string `json:"destination"`
	ResidenceCountry string `json:"residenceCountry"`
	PolicyType       string `json:"policyType"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	Travelers        int    `json:"travelers"`
}

// Fingerprint identifies the priced inputs of a trip. Quotes fetched for
// a different fingerprint are stale.
func (t TripRequest) Fingerprint() string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(t.Destination)),
		strings.ToLower(strings.TrimSpace(t.ResidenceCountry)),
		strings.ToLower(strings.TrimSpace(t.PolicyType)),
		t.StartDate,
		t.EndDate,
		strconv.Itoa(t.Travelers),
	}, "|")
}

// Dates parses both dates; ok is false unless both parse and end is after start.
func (t TripRequest) Dates() (start, end time.Time, ok bool) {
	start, err := time.Parse(DateLayout, t.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(DateLayout, t.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, end.After(start)
}

// Traveler is one insured person. The first traveler is the policy holder
// and carries the contact email and phone.
type Traveler struct {
	Title       string `json:"title"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Age         *int   `json:"age,omitempty"`
	Nationality string `json:"nationality"`
	TaxID       string `json:"taxId,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// HasName reports whether first and last name are filled in.
func (t Traveler) HasName() bool {
	return strings.TrimSpace(t.FirstName) != "" && strings.TrimSpace(t.LastName) != ""
}

// HasAge reports whether an age or a date of birth is known.
func (t Traveler) HasAge() bool {
	return t.Age != nil || strings.TrimSpace(t.DateOfBirth) != ""
}

// AgeOn returns the traveler's age on the given day, preferring the date of birth.
func (t Traveler) AgeOn(day time.Time) (int, bool) {
	if dob, err := time.Parse(DateLayout, t.DateOfBirth); err == nil {
		age := day.Year() - dob.Year()
		if day.Month() < dob.Month() || (day.Month() == dob.Month() && day.Day() < dob.Day()) {
			age--
		}
		if age < 0 {
			age = 0
		}
		return age, true
	}
	if t.Age != nil {
		return *t.Age, true
	}
	return 0, false
}

// Billing is the billing address.
type Billing struct {
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
}

// Payment holds the card details kept in session state. The full card
// number and security code are never stored.
type Payment struct {
	CardholderName string `json:"cardholderName"`
	CardLast4      string `json:"cardLast4"`
	Expiry         string `json:"expiry"`
}

// AddOn is an optional coverage. PriceCents is the catalog's indicative
// price and only counts when PriceKnown is set.
type AddOn struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PriceCents   int64  `json:"priceCents"`
	PriceKnown   bool   `json:"priceKnown"`
	Currency     string `json:"currency"`
	Icon         string `json:"icon,omitempty"`
	Category     string `json:"category,omitempty"`
	AlterationID string `json:"alterationId"`
}

// Processing marks the single add-on mutation in flight.
type Processing struct {
	AddonID   string    `json:"addonId"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"startedAt"`
}

// State is a wizard session.
type State struct {
	SessionID uuid.UUID `json:"sessionId"`
	Phase     Phase     `json:"phase"`

	Trip      TripRequest `json:"trip"`
	Travelers []Traveler  `json:"travelers"`

	Quotes            []pricingtransport.QuoteOption `json:"quotes"`
	QuotesFallback    bool                           `json:"quotesFallback"`
	QuotesNotice      string                         `json:"quotesNotice,omitempty"`
	QuotesFingerprint string                         `json:"quotesFingerprint,omitempty"`
	Selected          *pricingtransport.QuoteOption  `json:"selected,omitempty"`

	AvailableAddons     []AddOn `json:"availableAddons"`
	AddonCatalogKey     string  `json:"addonCatalogKey,omitempty"`
	AddonCatalogMatched bool    `json:"addonCatalogMatched"`
	Attached            []AddOn `json:"attached"`
	// AuthoritativeTotalCents is nil until a re-pricing call returned a total
	// for the current add-on set.
	AuthoritativeTotalCents *int64      `json:"authoritativeTotalCents,omitempty"`
	Processing              *Processing `json:"processing,omitempty"`

	Billing          Billing                            `json:"billing"`
	Payment          Payment                            `json:"payment"`
	TermsAccepted    bool                               `json:"termsAccepted"`
	ScreeningAnswers []pricingtransport.ScreeningAnswer `json:"screeningAnswers,omitempty"`

	ProviderQuoteID  string                        `json:"providerQuoteId,omitempty"`
	QuoteRecordID    *uuid.UUID                    `json:"quoteRecordId,omitempty"`
	PolicyNumber     string                        `json:"policyNumber,omitempty"`
	Documents        pricingtransport.DocumentURLs `json:"documents"`
	DocumentsEmailed bool                          `json:"documentsEmailed"`
	SummaryFileKey   string                        `json:"summaryFileKey,omitempty"`
	Notices          []string                      `json:"notices,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewState returns an empty session at TripDetails with one traveler.
func NewState(id uuid.UUID, now time.Time, ttl time.Duration) *State {
	return &State{
		SessionID:       id,
		Phase:           PhaseTripDetails,
		Trip:            TripRequest{Travelers: MinTravelers},
		Travelers:       ResizeTravelers(nil, MinTravelers),
		Quotes:          []pricingtransport.QuoteOption{},
		AvailableAddons: []AddOn{},
		Attached:        []AddOn{},
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}
}

// Finalized reports whether a policy was issued for this session.
func (s *State) Finalized() bool {
	return s.PolicyNumber != ""
}

// Holder returns the policy holder, the first traveler.
func (s *State) Holder() Traveler {
	if len(s.Travelers) == 0 {
		return Traveler{}
	}
	return s.Travelers[0]
}

// ResizeTravelers appends empty travelers or truncates the tail so the list
// has exactly n entries. Existing entries keep their order.
func ResizeTravelers(travelers []Traveler, n int) []Traveler {
	if n < 0 {
		n = 0
	}
	if len(travelers) >= n {
		out := make([]Traveler, n)
		copy(out, travelers[:n])
		return out
	}
	out := make([]Traveler, len(travelers), n)
	copy(out, travelers)
	for len(out) < n {
		out = append(out, Traveler{})
	}
	return out
}

// SelectQuote makes q the selected quote. Any add-on state priced against
// the previous selection is dropped.
func (s *State) SelectQuote(q pricingtransport.QuoteOption) {
	selected := q
	s.Selected = &selected
	s.ProviderQuoteID = q.ProviderQuoteID
	s.Attached = []AddOn{}
	s.AuthoritativeTotalCents = nil
	s.AvailableAddons = []AddOn{}
	s.AddonCatalogKey = ""
	s.AddonCatalogMatched = false
}

// ClearQuotes forgets fetched quotes and the selection.
func (s *State) ClearQuotes() {
	s.Quotes = []pricingtransport.QuoteOption{}
	s.QuotesFallback = false
	s.QuotesNotice = ""
	s.QuotesFingerprint = ""
	s.Selected = nil
	s.ProviderQuoteID = ""
	s.Attached = []AddOn{}
	s.AuthoritativeTotalCents = nil
	s.AvailableAddons = []AddOn{}
	s.AddonCatalogKey = ""
	s.AddonCatalogMatched = false
}

// QuotesStale reports whether quotes must be fetched for the current trip.
func (s *State) QuotesStale() bool {
	return len(s.Quotes) == 0 || s.QuotesFingerprint != s.Trip.Fingerprint()
}

// FindQuote returns the fetched quote with the given ID.
func (s *State) FindQuote(id string) (pricingtransport.QuoteOption, bool) {
	for _, q := range s.Quotes {
		if q.ID == id {
			return q, true
		}
	}
	return pricingtransport.QuoteOption{}, false
}

// FindAvailableAddon returns a catalog add-on by ID.
func (s *State) FindAvailableAddon(id string) (AddOn, bool) {
	for _, a := range s.AvailableAddons {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// AttachedIndex returns the position of an attached add-on, or -1.
func (s *State) AttachedIndex(id string) int {
	for i, a := range s.Attached {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// AlterationIDs lists the alteration ids of addons in attachment order.
func AlterationIDs(addons []AddOn) []string {
	ids := make([]string, 0, len(addons))
	for _, a := range addons {
		ids = append(ids, a.AlterationID)
	}
	return ids
}

// PreselectQuote returns the index of the first quote whose name or policy
// type mentions "essential", or 0. It returns -1 for an empty list.
func PreselectQuote(quotes []pricingtransport.QuoteOption) int {
	if len(quotes) == 0 {
		return -1
	}
	for i, q := range quotes {
		if strings.Contains(strings.ToLower(q.Name), "essential") ||
			strings.Contains(strings.ToLower(q.PolicyTypeName), "essential") {
			return i
		}
	}
	return 0
}

// DisplayedTotal is the price shown to the customer: the authoritative
// total once re-pricing resolved with add-ons attached, otherwise the base
// price plus the known catalog prices of attached add-ons.
func DisplayedTotal(s *State) (cents int64, currency string) {
	if s.Selected == nil {
		return 0, ""
	}
	currency = s.Selected.Currency
	if s.AuthoritativeTotalCents != nil && len(s.Attached) > 0 {
		return *s.AuthoritativeTotalCents, currency
	}
	total := s.Selected.PriceCents
	for _, a := range s.Attached {
		if a.PriceKnown {
			total += a.PriceCents
		}
	}
	return total, currency
}
