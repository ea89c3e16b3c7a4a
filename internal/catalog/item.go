package catalog

// Item is one catalog entry as served by the upstream item store. Items are
// immutable once fetched; a new query replaces the page wholesale.
type Item struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PriceCents    int    `json:"price_cents"`
	DiscountCents int    `json:"discount_cents"`
	ImageURL      string `json:"image_url"`
	Rating        Rating `json:"rating"`
}

// Rating aggregates reviews for an item.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// EffectivePriceCents returns the discount when one is set, the base price otherwise.
func (i Item) EffectivePriceCents() int {
	if i.DiscountCents != 0 {
		return i.DiscountCents
	}
	return i.PriceCents
}

// ComputeMaxDiscount returns the largest nonzero discount in one fetched page.
// The value is derived fresh per page and never accumulated across fetches.
func ComputeMaxDiscount(items []Item) int {
	max := 0
	for _, item := range items {
		if item.DiscountCents > max {
			max = item.DiscountCents
		}
	}
	return max
}
