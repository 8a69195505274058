package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortRating    Sort = "rating"
)

// Listing scopes for the shop page.
const (
	ListingAll         = "all"
	ListingNewArrivals = "new-arrivals"
)

// Filter is the parsed form of the shop page query string.
type Filter struct {
	MinPrice *float64
	MaxPrice *float64
	Size     string
	Color    string
	Sort     Sort
}

// ParseFilter reads minPrice, maxPrice, size, color and sort.
// Unparsable prices are ignored and unknown sorts fall back to newest.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		MinPrice: parsePrice(q.Get("minPrice")),
		MaxPrice: parsePrice(q.Get("maxPrice")),
		Size:     cleanChoice(q.Get("size")),
		Color:    cleanChoice(q.Get("color")),
		Sort:     SortNewest,
	}
	switch s := Sort(q.Get("sort")); s {
	case SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
		f.Sort = s
	}
	return f
}

// OrderClause is the SQL ORDER BY expression for the sort.
func (s Sort) OrderClause() string {
	switch s {
	case SortPriceAsc:
		return "price ASC"
	case SortPriceDesc:
		return "price DESC"
	case SortRating:
		return "rating DESC"
	default:
		return "created_at DESC"
	}
}

// Active reports whether any narrowing filter was given.
func (f Filter) Active() bool {
	return f.MinPrice != nil || f.MaxPrice != nil || f.Size != "" || f.Color != ""
}

func parsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func cleanChoice(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return ""
	}
	return raw
}
