package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/sanitize"
)

type cardDetails struct {
	last4  string
	expiry string
}

// validateCard checks a card number (length and Luhn checksum), an MM/YY
// expiry that has not passed, and a 3 or 4 digit security code.
func validateCard(number, expiry, cvv string, now time.Time) (cardDetails, error) {
	var errs []domain.FieldError

	digits := sanitize.Digits(number)
	if len(digits) < 12 || len(digits) > 19 || !luhnValid(digits) {
		errs = append(errs, domain.FieldError{Field: "payment.cardNumber", Message: "card number is not valid"})
	}

	normalizedExpiry, err := parseExpiry(expiry, now)
	if err != nil {
		errs = append(errs, domain.FieldError{Field: "payment.expiry", Message: err.Error()})
	}

	code := strings.TrimSpace(cvv)
	if len(code) < 3 || len(code) > 4 || sanitize.Digits(code) != code {
		errs = append(errs, domain.FieldError{Field: "payment.cvv", Message: "security code must be 3 or 4 digits"})
	}

	if len(errs) > 0 {
		return cardDetails{}, apperr.Validation(errs[0].Message).WithDetails(map[string]interface{}{
			"phase":  domain.PhasePayment.String(),
			"fields": errs,
		})
	}
	return cardDetails{last4: sanitize.LastFour(digits), expiry: normalizedExpiry}, nil
}

func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry accepts MM/YY or MM/YYYY and returns MM/YY.
func parseExpiry(raw string, now time.Time) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("expiry must be MM/YY")
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("expiry month is not valid")
	}
	yearText := strings.TrimSpace(parts[1])
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return "", fmt.Errorf("expiry year is not valid")
	}
	switch len(yearText) {
	case 2:
		year += 2000
	case 4:
	default:
		return "", fmt.Errorf("expiry year is not valid")
	}

	// Cards are valid through the last day of the expiry month.
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return "", fmt.Errorf("card has expired")
	}
	return fmt.Sprintf("%02d/%02d", month, year%100), nil
}
