package models

import (
	"sort"
	"strings"
)

// Catalog sort orders.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortPopular   = "popular"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// ProductQuery filters and orders a product listing. Zero values match
// everything and sort newest first.
type ProductQuery struct {
	Category string
	Search   string
	Featured bool
	Sort     string
}

// ValidSort reports whether s is a known sort order. Empty means newest.
func ValidSort(s string) bool {
	switch s {
	case "", SortNewest, SortPriceLow, SortPriceHigh, SortPopular:
		return true
	}
	return false
}

// FilterProducts returns the products matching q in q's order. The input
// slice is not modified.
func FilterProducts(products []Product, q ProductQuery) []Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if q.Featured && !p.Featured {
			continue
		}
		out = append(out, p)
	}

	newest := func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	}
	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortPopular:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Featured != out[j].Featured {
				return out[i].Featured
			}
			return newest(i, j)
		})
	default:
		sort.SliceStable(out, newest)
	}
	return out
}
