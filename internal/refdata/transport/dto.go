// Package transport holds the reference data exchanged with the catalog backend.
package transport

// DestinationCategory groups destination countries, e.g. "Europe" or "Worldwide".
type DestinationCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Country is a destination or residence country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PolicyType is a catalog policy type; its Name keys the add-on catalog.
type PolicyType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Addon is an optional coverage from the catalog. PriceCents is indicative;
// the authoritative total comes from re-pricing.
type Addon struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PriceCents   int64  `json:"priceCents"`
	Currency     string `json:"currency"`
	Icon         string `json:"icon,omitempty"`
	Category     string `json:"category,omitempty"`
	AlterationID string `json:"alterationId"`
}

// DestinationHelp lists the countries of one destination category.
type DestinationHelp struct {
	Category  DestinationCategory `json:"category"`
	Countries []Country           `json:"countries"`
}

// AddonCatalog is the add-on list for a provider policy-type name.
type AddonCatalog struct {
	RequestedName string  `json:"requestedName"`
	CanonicalName string  `json:"canonicalName"`
	Matched       bool    `json:"matched"`
	Addons        []Addon `json:"addons"`
}
