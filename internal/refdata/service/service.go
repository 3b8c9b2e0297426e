// Package service provides cached reference data lookups for the wizard.
package service

import (
	"context"
	"sync"
	"time"

	"travel_portal_backend/internal/refdata/transport"
	"travel_portal_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// maxCategoryFetches bounds concurrent per-category country requests.
const maxCategoryFetches = 4

// Fetcher is the reference data backend.
type Fetcher interface {
	DestinationCategories(ctx context.Context) ([]transport.DestinationCategory, error)
	CountriesForCategory(ctx context.Context, category string) ([]transport.Country, error)
	Countries(ctx context.Context) ([]transport.Country, error)
	PolicyTypes(ctx context.Context) ([]transport.PolicyType, error)
	Addons(ctx context.Context, policyType string) ([]transport.Addon, error)
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Service serves reference data from an in-process TTL cache. Every failed
// fetch degrades to an empty list and is retried on the next call.
type Service struct {
	fetcher    Fetcher
	normalizer *PolicyTypeNormalizer
	log        *logger.Logger
	cache      map[string]cacheEntry
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
	now        func() time.Time
}

// New creates a reference data service.
func New(fetcher Fetcher, normalizer *PolicyTypeNormalizer, cacheTTL time.Duration, log *logger.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		log:        log,
		cache:      make(map[string]cacheEntry),
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// DestinationCategories lists destination categories.
func (s *Service) DestinationCategories(ctx context.Context) []transport.DestinationCategory {
	return load(ctx, s, "destination-categories", s.fetcher.DestinationCategories)
}

// CountriesForCategory lists the countries of a destination category.
func (s *Service) CountriesForCategory(ctx context.Context, category string) []transport.Country {
	return load(ctx, s, "category-countries:"+category, func(ctx context.Context) ([]transport.Country, error) {
		return s.fetcher.CountriesForCategory(ctx, category)
	})
}

// ResidenceCountries lists countries of residence.
func (s *Service) ResidenceCountries(ctx context.Context) []transport.Country {
	return load(ctx, s, "countries", s.fetcher.Countries)
}

// PolicyTypes lists catalog policy types.
func (s *Service) PolicyTypes(ctx context.Context) []transport.PolicyType {
	return load(ctx, s, "policy-types", s.fetcher.PolicyTypes)
}

// AddonsForPolicyType lists the add-ons of a canonical catalog key.
func (s *Service) AddonsForPolicyType(ctx context.Context, policyType string) []transport.Addon {
	return load(ctx, s, "addons:"+policyType, func(ctx context.Context) ([]transport.Addon, error) {
		return s.fetcher.Addons(ctx, policyType)
	})
}

// NormalizePolicyTypeName resolves a provider policy-type name to its catalog key.
func (s *Service) NormalizePolicyTypeName(raw string) (string, bool) {
	return s.normalizer.Normalize(raw)
}

// AddonCatalog resolves a provider policy-type name and loads its add-ons.
// An unmatched name is looked up as-is and will usually yield no add-ons.
func (s *Service) AddonCatalog(ctx context.Context, providerName string) transport.AddonCatalog {
	canonical, matched := s.normalizer.Normalize(providerName)
	if !matched {
		s.log.WithContext(ctx).Warn("unrecognised policy type name", "policy_type", providerName)
	}
	return transport.AddonCatalog{
		RequestedName: providerName,
		CanonicalName: canonical,
		Matched:       matched,
		Addons:        s.AddonsForPolicyType(ctx, canonical),
	}
}

// DestinationHelp loads every category with its countries. Categories are
// fetched concurrently; a failed category contributes an empty list.
func (s *Service) DestinationHelp(ctx context.Context) []transport.DestinationHelp {
	categories := s.DestinationCategories(ctx)
	help := make([]transport.DestinationHelp, len(categories))

	var g errgroup.Group
	g.SetLimit(maxCategoryFetches)
	for i, category := range categories {
		g.Go(func() error {
			key := category.ID
			if key == "" {
				key = category.Name
			}
			help[i] = transport.DestinationHelp{
				Category:  category,
				Countries: s.CountriesForCategory(ctx, key),
			}
			return nil
		})
	}
	_ = g.Wait()

	return help
}

func load[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) ([]T, error)) []T {
	if cached, ok := s.getFromCache(key); ok {
		if typed, ok := cached.([]T); ok {
			return typed
		}
	}

	items, err := fetch(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warn("reference data unavailable, using empty list", "key", key, "error", err)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}

	s.setCache(key, items)
	return items
}

func (s *Service) getFromCache(key string) (interface{}, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (s *Service) setCache(key string, value interface{}) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[key] = cacheEntry{value: value, expiresAt: s.now().Add(s.cacheTTL)}
}
