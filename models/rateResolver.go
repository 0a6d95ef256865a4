package models

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RateSource identifies which tier of the lookup hierarchy supplied a rate.
// It is part of the report contract, not an implementation detail.
type RateSource string

const (
	RateSourceExact    RateSource = "exact"
	RateSourceFallback RateSource = "fallback"
	RateSourceDefault  RateSource = "default"
)

type rateKey struct {
	productUid string
	weight     string
	provider   string
}

type fallbackEntry struct {
	weight decimal.Decimal
	rate   decimal.Decimal
}

// RateResolver resolves shipping rates through the exact → fallback → default
// hierarchy over an immutable in-memory snapshot of the rate tables. It never
// fails: an unresolvable lookup degrades to the global minimum at the default
// tier, which callers surface as a data-completeness warning.
type RateResolver struct {
	exact            map[rateKey]decimal.Decimal
	byProductCarrier map[string][]fallbackEntry
	carrierDefaults  map[string]decimal.Decimal
	globalMin        decimal.Decimal
}

// NewRateResolver builds a snapshot resolver. globalMin is used when even the
// carrier-default table has no row for the carrier.
func NewRateResolver(rateConfigs []*ShippingRateConfig, carrierDefaults []*CarrierDefaultRate, globalMin decimal.Decimal) *RateResolver {
	r := &RateResolver{
		exact:            make(map[rateKey]decimal.Decimal, len(rateConfigs)),
		byProductCarrier: make(map[string][]fallbackEntry),
		carrierDefaults:  make(map[string]decimal.Decimal, len(carrierDefaults)),
		globalMin:        globalMin,
	}
	for _, cfg := range rateConfigs {
		provider := normalizeProvider(cfg.ShippingProvider)
		key := rateKey{
			productUid: cfg.ProductUid,
			weight:     weightKey(cfg.ProductWeight),
			provider:   provider,
		}
		r.exact[key] = cfg.Rate

		fk := cfg.ProductUid + "|" + provider
		r.byProductCarrier[fk] = append(r.byProductCarrier[fk], fallbackEntry{
			weight: cfg.ProductWeight,
			rate:   cfg.Rate,
		})
	}
	// The fallback tier ignores weight; when several entries differ only by
	// weight the smallest stored weight wins, so resolution does not depend on
	// insertion order.
	for _, entries := range r.byProductCarrier {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].weight.LessThan(entries[j].weight)
		})
	}
	for _, row := range carrierDefaults {
		provider := normalizeProvider(row.ShippingProvider)
		if provider == GlobalDefaultProvider {
			r.globalMin = row.Rate
			continue
		}
		r.carrierDefaults[provider] = row.Rate
	}
	return r
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// weightKey renders a weight with trailing fractional zeros trimmed, so 0.5
// and 0.500 hit the same exact-tier entry whatever scale the input carried.
func weightKey(w decimal.Decimal) string {
	s := w.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// Resolve returns the rate to use for the triple and the hierarchy tier that
// supplied it. The returned value is a rate only; the caller decides the
// charging formula (flat per order vs per kg).
func (r *RateResolver) Resolve(productUid string, productWeight decimal.Decimal, shippingProvider string) (decimal.Decimal, RateSource) {
	provider := normalizeProvider(shippingProvider)

	if rate, ok := r.exact[rateKey{productUid: productUid, weight: weightKey(productWeight), provider: provider}]; ok {
		return rate, RateSourceExact
	}
	if entries := r.byProductCarrier[productUid+"|"+provider]; len(entries) > 0 {
		return entries[0].rate, RateSourceFallback
	}
	if rate, ok := r.carrierDefaults[provider]; ok {
		return rate, RateSourceDefault
	}
	return r.globalMin, RateSourceDefault
}

// LoadRateResolver snapshots the rate tables for one calculation pass.
func LoadRateResolver(ctx context.Context) (*RateResolver, error) {
	rateConfigs, err := ListShippingRateConfigs(ctx)
	if err != nil {
		return nil, err
	}
	carrierDefaults, err := ListCarrierDefaultRates(ctx)
	if err != nil {
		return nil, err
	}
	return NewRateResolver(rateConfigs, carrierDefaults, decimal.NewFromInt(25)), nil
}
