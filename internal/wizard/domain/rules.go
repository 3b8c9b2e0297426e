package domain

import (
	"fmt"
	"strings"

	"travel_portal_backend/platform/apperr"
)

// EmailChecker validates email address shape.
type EmailChecker interface {
	IsEmail(s string) bool
}

// FieldError names one unmet requirement of a phase.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type rule func(s *State, emails EmailChecker) []FieldError

// phaseRules is the single source of truth for forward navigation.
var phaseRules = map[Phase]rule{
	PhaseTripDetails: tripDetailsRule,
	PhaseQuotes:      quotesRule,
	PhaseAddOns:      alwaysValid,
	PhaseReview:      alwaysValid,
	PhasePayment:     paymentRule,
	PhaseDocuments:   alwaysValid,
}

// Violations lists what keeps the current phase from being valid.
func Violations(s *State, emails EmailChecker) []FieldError {
	r, ok := phaseRules[s.Phase]
	if !ok {
		return []FieldError{{Field: "phase", Message: "unknown phase"}}
	}
	return r(s, emails)
}

// CanAdvance returns a validation error unless the current phase is valid
// and a next phase exists.
func CanAdvance(s *State, emails EmailChecker) error {
	if _, ok := s.Phase.Next(); !ok {
		return apperr.Validation("the wizard is already complete")
	}
	if violations := Violations(s, emails); len(violations) > 0 {
		return apperr.Validation(violations[0].Message).WithDetails(map[string]interface{}{
			"phase":  s.Phase.String(),
			"fields": violations,
		})
	}
	return nil
}

func alwaysValid(*State, EmailChecker) []FieldError { return nil }

func tripDetailsRule(s *State, _ EmailChecker) []FieldError {
	var errs []FieldError
	t := s.Trip
	if strings.TrimSpace(t.Destination) == "" {
		errs = append(errs, FieldError{Field: "trip.destination", Message: "destination is required"})
	}
	if t.StartDate == "" || t.EndDate == "" {
		errs = append(errs, FieldError{Field: "trip.dates", Message: "start and end dates are required"})
	} else if _, _, ok := t.Dates(); !ok {
		errs = append(errs, FieldError{Field: "trip.endDate", Message: "end date must be after start date"})
	}
	if strings.TrimSpace(t.PolicyType) == "" {
		errs = append(errs, FieldError{Field: "trip.policyType", Message: "policy type is required"})
	}
	if strings.TrimSpace(t.ResidenceCountry) == "" {
		errs = append(errs, FieldError{Field: "trip.residenceCountry", Message: "country of residence is required"})
	}
	return errs
}

func quotesRule(s *State, _ EmailChecker) []FieldError {
	if s.Selected == nil {
		return []FieldError{{Field: "selected", Message: "select a quote to continue"}}
	}
	return nil
}

func paymentRule(s *State, emails EmailChecker) []FieldError {
	var errs []FieldError
	for i, t := range s.Travelers {
		if !t.HasName() {
			errs = append(errs, FieldError{Field: fmt.Sprintf("travelers[%d].name", i), Message: fmt.Sprintf("traveler %d needs a first and last name", i+1)})
		}
		if !t.HasAge() {
			errs = append(errs, FieldError{Field: fmt.Sprintf("travelers[%d].dateOfBirth", i), Message: fmt.Sprintf("traveler %d needs a date of birth or age", i+1)})
		}
	}

	holder := s.Holder()
	switch {
	case strings.TrimSpace(holder.Email) == "":
		errs = append(errs, FieldError{Field: "travelers[0].email", Message: "policy holder email is required"})
	case !emails.IsEmail(holder.Email):
		errs = append(errs, FieldError{Field: "travelers[0].email", Message: "policy holder email is not a valid address"})
	}
	if strings.TrimSpace(holder.Phone) == "" {
		errs = append(errs, FieldError{Field: "travelers[0].phone", Message: "policy holder phone is required"})
	}

	b := s.Billing
	for _, f := range []struct{ field, value string }{
		{"billing.addressLine", b.AddressLine},
		{"billing.city", b.City},
		{"billing.postalCode", b.PostalCode},
		{"billing.country", b.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, FieldError{Field: f.field, Message: "billing address is incomplete"})
		}
	}

	p := s.Payment
	if strings.TrimSpace(p.CardholderName) == "" || p.CardLast4 == "" || p.Expiry == "" {
		errs = append(errs, FieldError{Field: "payment", Message: "payment details are incomplete"})
	}
	if !s.TermsAccepted {
		errs = append(errs, FieldError{Field: "termsAccepted", Message: "the terms and conditions must be accepted"})
	}
	return errs
}

// SubmissionViolations adds the checks made just before finalization:
// every supplied traveler email must be valid and residents of
// vatCountries must give a tax id.
func SubmissionViolations(s *State, emails EmailChecker, vatCountries []string) []FieldError {
	var errs []FieldError
	for i, t := range s.Travelers {
		if i == 0 || strings.TrimSpace(t.Email) == "" {
			continue
		}
		if !emails.IsEmail(t.Email) {
			errs = append(errs, FieldError{Field: fmt.Sprintf("travelers[%d].email", i), Message: fmt.Sprintf("traveler %d email is not a valid address", i+1)})
		}
	}
	if RequiresTaxID(s.Trip.ResidenceCountry, vatCountries) && strings.TrimSpace(s.Holder().TaxID) == "" {
		errs = append(errs, FieldError{Field: "travelers[0].taxId", Message: "a VAT / tax id is required for residents of " + s.Trip.ResidenceCountry})
	}
	return errs
}

// RequiresTaxID reports whether residents of country must supply a tax id.
func RequiresTaxID(country string, vatCountries []string) bool {
	country = strings.TrimSpace(country)
	for _, c := range vatCountries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}
