// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "GR"

// NormalizeE164 formats a phone number to E.164 using the default region for
// numbers without a country prefix. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return NormalizeE164ForRegion(input, defaultRegion)
}

// NormalizeE164ForRegion is NormalizeE164 with an explicit ISO 3166 region.
// An empty or unknown region falls back to the default region.
func NormalizeE164ForRegion(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	region = strings.ToUpper(strings.TrimSpace(region))
	if len(region) != 2 {
		region = defaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// RegionForCountry maps a country name or ISO code to a two-letter region code.
// Unknown names return an empty string.
func RegionForCountry(country string) string {
	trimmed := strings.TrimSpace(country)
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	return countryRegions[strings.ToLower(trimmed)]
}

var countryRegions = map[string]string{
	"greece":         "GR",
	"cyprus":         "CY",
	"united kingdom": "GB",
	"uk":             "GB",
	"ireland":        "IE",
	"germany":        "DE",
	"france":         "FR",
	"italy":          "IT",
	"spain":          "ES",
	"portugal":       "PT",
	"netherlands":    "NL",
	"belgium":        "BE",
	"austria":        "AT",
	"switzerland":    "CH",
	"sweden":         "SE",
	"norway":         "NO",
	"denmark":        "DK",
	"finland":        "FI",
	"poland":         "PL",
	"romania":        "RO",
	"bulgaria":       "BG",
	"united states":  "US",
	"usa":            "US",
	"canada":         "CA",
	"australia":      "AU",
}
