package service

import "travel_portal_backend/internal/quotes/transport"

// CalculateTotal sums the base line and every add-on line with a known
// price. An explicit override, typically a provider re-pricing total, wins.
func CalculateTotal(lines []transport.DraftLine, override *int64) int64 {
	if override != nil {
		return *override
	}
	var total int64
	for _, l := range lines {
		if l.Kind == transport.LineKindBase || l.PriceKnown {
			total += l.PriceCents
		}
	}
	return total
}
