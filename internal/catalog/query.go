package catalog

import (
	"fmt"
	"strings"
)

// PriceBand is a user-chosen [min, max] range in cents. A band with a zero
// minimum counts as not chosen, matching the storefront's range control which
// starts at zero.
type PriceBand struct {
	MinCents int
	MaxCents int
}

// Chosen reports whether the shopper actually picked a band.
func (b PriceBand) Chosen() bool {
	return b.MinCents > 0
}

// Contains applies the discount-aware band check: discounted items are
// compared by their discount, everything else by base price.
func (b PriceBand) Contains(item Item) bool {
	price := item.PriceCents
	if item.DiscountCents != 0 {
		price = item.DiscountCents
	}
	return price >= b.MinCents && price <= b.MaxCents
}

// Query identifies one catalog view request.
type Query struct {
	Category string
	Search   string
	Band     PriceBand
}

// Pinned resolves the active category. The new-releases sentinel suppresses
// search and price filtering entirely.
func (q Query) Pinned(newReleasesToken string) Query {
	if q.Category == newReleasesToken {
		return Query{Category: newReleasesToken}
	}
	return q
}

// FetchKey builds the composite fetch key for this query. The upper price
// bound is widened by the largest discount observed on the previous page so
// discounted items are not excluded by their undiscounted price.
func (q Query) FetchKey(maxDiscountCents int) string {
	parts := []string{q.Category}
	if q.Search != "" {
		parts = append(parts, "q="+q.Search)
	}
	if q.Band.Chosen() {
		parts = append(parts, fmt.Sprintf("price=%d-%d", q.Band.MinCents, q.Band.MaxCents+maxDiscountCents))
	}
	return strings.Join(parts, "|")
}

// FilterByBand narrows a fetched page to items whose effective price falls in
// the band. An empty result is valid.
func FilterByBand(items []Item, band PriceBand) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if band.Contains(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
