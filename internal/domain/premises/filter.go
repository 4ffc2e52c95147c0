package premises

import (
	"math"
	"sort"
	"strings"
)

// SortKey selects the ordering of a search result.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortAreaDesc  SortKey = "area_desc"
)

// NormalizeSort maps unknown sort values to the default.
func NormalizeSort(raw string) SortKey {
	switch SortKey(strings.TrimSpace(strings.ToLower(raw))) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortAreaDesc:
		return SortAreaDesc
	default:
		return SortNewest
	}
}

// FilterCriteria is the full set of optional search constraints. Empty strings
// and NaN bounds mean "no constraint"; populated predicates combine as a
// conjunction.
type FilterCriteria struct {
	Keyword  string
	Type     string
	City     string
	MinPrice float64
	MaxPrice float64
	MinArea  float64
	MaxArea  float64
}

// UnboundedCriteria returns criteria that match every listing.
func UnboundedCriteria() FilterCriteria {
	return FilterCriteria{
		MinPrice: math.NaN(),
		MaxPrice: math.NaN(),
		MinArea:  math.NaN(),
		MaxArea:  math.NaN(),
	}
}

// Normalized trims text fields and swaps any inverted numeric range. Zero-value
// numeric fields are treated as unset and mapped to NaN so callers can build
// the struct literally.
func (c FilterCriteria) Normalized() FilterCriteria {
	out := c
	out.Keyword = strings.TrimSpace(c.Keyword)
	out.Type = strings.TrimSpace(strings.ToLower(c.Type))
	out.City = strings.TrimSpace(strings.ToLower(c.City))
	out.MinPrice = normalizeBound(c.MinPrice)
	out.MaxPrice = normalizeBound(c.MaxPrice)
	out.MinArea = normalizeBound(c.MinArea)
	out.MaxArea = normalizeBound(c.MaxArea)
	if bothFinite(out.MinPrice, out.MaxPrice) && out.MinPrice > out.MaxPrice {
		out.MinPrice, out.MaxPrice = out.MaxPrice, out.MinPrice
	}
	if bothFinite(out.MinArea, out.MaxArea) && out.MinArea > out.MaxArea {
		out.MinArea, out.MaxArea = out.MaxArea, out.MinArea
	}
	return out
}

func normalizeBound(v float64) float64 {
	if v == 0 || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func bothFinite(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b)
}

// Matches reports whether a single listing satisfies every populated
// predicate. Criteria must already be Normalized.
func (c FilterCriteria) Matches(p *Premise) bool {
	if c.Keyword != "" {
		needle := strings.ToLower(c.Keyword)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.LocationText), needle) &&
			!strings.Contains(strings.ToLower(p.BusinessType.Label()), needle) {
			return false
		}
	}
	if c.Type != "" && string(p.BusinessType) != c.Type {
		return false
	}
	if c.City != "" && string(CityOf(p.Latitude, p.Longitude)) != c.City {
		return false
	}
	if !math.IsNaN(c.MinPrice) && float64(p.Price) < c.MinPrice {
		return false
	}
	if !math.IsNaN(c.MaxPrice) && float64(p.Price) > c.MaxPrice {
		return false
	}
	if !math.IsNaN(c.MinArea) && p.AreaM2 < c.MinArea {
		return false
	}
	if !math.IsNaN(c.MaxArea) && p.AreaM2 > c.MaxArea {
		return false
	}
	return true
}

// Apply filters the input in source order. The input slice is never mutated;
// an empty result is a valid outcome, not an error.
func (c FilterCriteria) Apply(input []*Premise) []*Premise {
	normalized := c.Normalized()
	out := make([]*Premise, 0, len(input))
	for _, p := range input {
		if normalized.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortPremises orders listings in place. Sorting is stable: ties keep source
// order, and SortNewest leaves source order untouched (the store already
// yields newest-first).
func SortPremises(items []*Premise, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price > items[j].Price })
	case SortAreaDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].AreaM2 > items[j].AreaM2 })
	}
}
