package service

import (
	"sort"

	"travel_portal_backend/internal/pricing/transport"
)

// maxRankedQuotes is the number of options shown to the customer.
const maxRankedQuotes = 3

// RankQuotes keeps the three highest-priority options and orders them by price.
// Ties keep the provider's order.
func RankQuotes(options []transport.QuoteOption) []transport.QuoteOption {
	ranked := make([]transport.QuoteOption, len(options))
	copy(ranked, options)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})
	if len(ranked) > maxRankedQuotes {
		ranked = ranked[:maxRankedQuotes]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriceCents < ranked[j].PriceCents
	})
	return ranked
}

// FallbackNotice is shown whenever FallbackQuotes replaced live prices.
const FallbackNotice = "Live prices are temporarily unavailable. The quotes below are samples and cannot be purchased until live pricing returns."

// FallbackQuotes returns the labelled sample set shown when live pricing fails.
func FallbackQuotes() []transport.QuoteOption {
	return []transport.QuoteOption{
		{
			ID:             "sample-essential",
			Name:           "Essential Single Trip (sample)",
			Tier:           transport.TierBasic,
			PriceCents:     2990,
			Currency:       "EUR",
			PolicyTypeName: "Essential Single Trip",
			Coverage: transport.Coverage{
				MedicalCents:      5000000,
				BaggageCents:      100000,
				CancellationCents: 100000,
			},
			Features:   []string{"Emergency medical expenses", "24/7 assistance"},
			IsFallback: true,
		},
		{
			ID:             "sample-silver",
			Name:           "Silver Single Trip (sample)",
			Tier:           transport.TierStandard,
			PriceCents:     4490,
			Currency:       "EUR",
			PolicyTypeName: "Silver Single Trip",
			Coverage: transport.Coverage{
				MedicalCents:      10000000,
				BaggageCents:      200000,
				CancellationCents: 300000,
			},
			Features:   []string{"Emergency medical expenses", "24/7 assistance", "Travel delay"},
			IsFallback: true,
		},
		{
			ID:             "sample-gold",
			Name:           "Gold Single Trip (sample)",
			Tier:           transport.TierPremium,
			PriceCents:     6990,
			Currency:       "EUR",
			PolicyTypeName: "Gold Single Trip",
			Coverage: transport.Coverage{
				MedicalCents:      20000000,
				BaggageCents:      300000,
				CancellationCents: 500000,
				Activities:        []string{"Winter sports"},
			},
			Features:   []string{"Emergency medical expenses", "24/7 assistance", "Travel delay", "Winter sports"},
			IsFallback: true,
		},
	}
}
