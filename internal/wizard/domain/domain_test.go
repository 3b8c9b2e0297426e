package domain

import (
	"testing"
	"time"

	pricingtransport "travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/validator"

	"github.com/google/uuid"
)

func TestPhaseNavigation(t *testing.T) {
	if next, ok := PhaseTripDetails.Next(); !ok || next != PhaseQuotes {
		t.Fatalf("expected quotes after trip details, got %v %v", next, ok)
	}
	if _, ok := PhaseDocuments.Next(); ok {
		t.Fatal("documents is terminal")
	}
	if _, ok := PhaseTripDetails.Prev(); ok {
		t.Fatal("cannot retreat from the first phase")
	}
	if _, ok := PhaseDocuments.Prev(); ok {
		t.Fatal("cannot retreat from the terminal phase")
	}
	if prev, ok := PhasePayment.Prev(); !ok || prev != PhaseReview {
		t.Fatalf("expected review before payment, got %v %v", prev, ok)
	}
	if PhaseAddOns.String() != "add_ons" || Phase(42).String() != "unknown" {
		t.Fatal("unexpected phase names")
	}
}

func TestResizeTravelersKeepsOrder(t *testing.T) {
	travelers := []Traveler{{FirstName: "A"}, {FirstName: "B"}}

	grown := ResizeTravelers(travelers, 4)
	if len(grown) != 4 || grown[0].FirstName != "A" || grown[1].FirstName != "B" || grown[3].FirstName != "" {
		t.Fatalf("unexpected grown list: %+v", grown)
	}

	shrunk := ResizeTravelers(grown, 1)
	if len(shrunk) != 1 || shrunk[0].FirstName != "A" {
		t.Fatalf("unexpected shrunk list: %+v", shrunk)
	}

	shrunk[0].FirstName = "changed"
	if travelers[0].FirstName != "A" {
		t.Fatal("ResizeTravelers must not alias its input")
	}
}

func TestTripDetailsRule(t *testing.T) {
	s := NewState(uuid.New(), time.Now(), time.Hour)
	val := validator.New()

	if err := CanAdvance(s, val); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty trip, got %v", err)
	}

	s.Trip = TripRequest{Destination: "Europe", ResidenceCountry: "Greece", PolicyType: "single", StartDate: "2026-01-20", EndDate: "2026-01-10", Travelers: 1}
	if err := CanAdvance(s, val); err == nil {
		t.Fatal("expected end-before-start to be rejected")
	}

	s.Trip.EndDate = "2026-01-20"
	if err := CanAdvance(s, val); err == nil {
		t.Fatal("expected equal dates to be rejected")
	}

	s.Trip.StartDate, s.Trip.EndDate = "2026-01-10", "2026-01-20"
	if err := CanAdvance(s, val); err != nil {
		t.Fatalf("expected valid trip, got %v", err)
	}
}

func validPaymentState() *State {
	age := 41
	s := NewState(uuid.New(), time.Now(), time.Hour)
	s.Phase = PhasePayment
	s.Travelers = []Traveler{{FirstName: "Maria", LastName: "Papadopoulou", Age: &age, Email: "a@b.co", Phone: "+306912345678"}}
	s.Billing = Billing{AddressLine: "Ermou 1", City: "Athens", PostalCode: "10563", Country: "Greece"}
	s.Payment = Payment{CardholderName: "Maria Papadopoulou", CardLast4: "1234", Expiry: "12/28"}
	s.TermsAccepted = true
	return s
}

func TestPaymentRuleEmailShape(t *testing.T) {
	val := validator.New()

	s := validPaymentState()
	if err := CanAdvance(s, val); err != nil {
		t.Fatalf("expected valid payment phase, got %v", err)
	}

	s.Travelers[0].Email = "not-an-email"
	if err := CanAdvance(s, val); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestPaymentRuleRequiresEveryField(t *testing.T) {
	val := validator.New()
	mutations := map[string]func(s *State){
		"second traveler unnamed": func(s *State) { s.Travelers = append(s.Travelers, Traveler{DateOfBirth: "1990-01-01"}) },
		"no age":                  func(s *State) { s.Travelers[0].Age = nil },
		"no phone":                func(s *State) { s.Travelers[0].Phone = "" },
		"no billing city":         func(s *State) { s.Billing.City = " " },
		"no card":                 func(s *State) { s.Payment.CardLast4 = "" },
		"terms":                   func(s *State) { s.TermsAccepted = false },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := validPaymentState()
			mutate(s)
			if err := CanAdvance(s, val); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSubmissionViolations(t *testing.T) {
	val := validator.New()
	s := validPaymentState()
	s.Trip.ResidenceCountry = "Greece"

	violations := SubmissionViolations(s, val, []string{"GR", "Greece"})
	if len(violations) != 1 || violations[0].Field != "travelers[0].taxId" {
		t.Fatalf("expected tax id violation, got %+v", violations)
	}

	s.Travelers[0].TaxID = "EL123456789"
	s.Travelers = append(s.Travelers, Traveler{Email: "broken@"})
	violations = SubmissionViolations(s, val, []string{"GR", "Greece"})
	if len(violations) != 1 || violations[0].Field != "travelers[1].email" {
		t.Fatalf("expected second traveler email violation, got %+v", violations)
	}

	s.Trip.ResidenceCountry = "Cyprus"
	s.Travelers[0].TaxID = ""
	s.Travelers[1].Email = ""
	if violations := SubmissionViolations(s, val, []string{"GR", "Greece"}); len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestSelectQuoteResetsAddonState(t *testing.T) {
	s := NewState(uuid.New(), time.Now(), time.Hour)
	total := int64(9999)
	s.SelectQuote(pricingtransport.QuoteOption{ID: "A", PriceCents: 1000})
	s.Attached = []AddOn{{ID: "x", AlterationID: "7"}}
	s.AuthoritativeTotalCents = &total

	s.SelectQuote(pricingtransport.QuoteOption{ID: "B", PriceCents: 2000})

	if len(s.Attached) != 0 || s.AuthoritativeTotalCents != nil {
		t.Fatalf("expected reset add-on state, got %+v %v", s.Attached, s.AuthoritativeTotalCents)
	}
	if s.Selected.ID != "B" {
		t.Fatalf("expected B selected, got %s", s.Selected.ID)
	}
}

func TestDisplayedTotal(t *testing.T) {
	s := NewState(uuid.New(), time.Now(), time.Hour)
	if cents, _ := DisplayedTotal(s); cents != 0 {
		t.Fatalf("expected 0 without selection, got %d", cents)
	}

	s.SelectQuote(pricingtransport.QuoteOption{ID: "A", PriceCents: 4150, Currency: "EUR"})
	if cents, cur := DisplayedTotal(s); cents != 4150 || cur != "EUR" {
		t.Fatalf("expected base price, got %d %s", cents, cur)
	}

	s.Attached = []AddOn{{ID: "x", PriceCents: 500, PriceKnown: true}, {ID: "y", PriceCents: 900}}
	if cents, _ := DisplayedTotal(s); cents != 4650 {
		t.Fatalf("expected base plus known add-on prices, got %d", cents)
	}

	total := int64(5230)
	s.AuthoritativeTotalCents = &total
	if cents, _ := DisplayedTotal(s); cents != 5230 {
		t.Fatalf("expected authoritative total, got %d", cents)
	}

	s.Attached = nil
	if cents, _ := DisplayedTotal(s); cents != 4150 {
		t.Fatalf("expected base price without add-ons, got %d", cents)
	}
}

func TestPreselectQuote(t *testing.T) {
	quotes := []pricingtransport.QuoteOption{
		{ID: "1", Name: "Gold"},
		{ID: "2", Name: "Silver", PolicyTypeName: "ESSENTIAL plus"},
		{ID: "3", Name: "Essential"},
	}
	if i := PreselectQuote(quotes); i != 1 {
		t.Fatalf("expected index 1, got %d", i)
	}
	if i := PreselectQuote(quotes[:1]); i != 0 {
		t.Fatalf("expected fallback to first, got %d", i)
	}
	if i := PreselectQuote(nil); i != -1 {
		t.Fatalf("expected -1 for empty list, got %d", i)
	}
}

func TestTravelerAgeOn(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	if age, ok := (Traveler{DateOfBirth: "1990-01-11"}).AgeOn(day); !ok || age != 35 {
		t.Fatalf("expected 35, got %d %v", age, ok)
	}
	if age, ok := (Traveler{DateOfBirth: "1990-01-10"}).AgeOn(day); !ok || age != 36 {
		t.Fatalf("expected 36, got %d %v", age, ok)
	}
	if _, ok := (Traveler{}).AgeOn(day); ok {
		t.Fatal("expected unknown age")
	}
}
