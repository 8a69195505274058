package catalog

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Slugify lower-cases name and collapses every run of non-alphanumerics into one dash.
func Slugify(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

// SplitList turns "XS, S , M" into [XS S M], dropping empty entries.
func SplitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DiscountPercent is the rounded percentage saved against the original price.
// It is zero when there is no original price or it is not above the price.
func DiscountPercent(price decimal.Decimal, original *decimal.Decimal) int {
	if original == nil || !original.GreaterThan(price) {
		return 0
	}
	pct, _ := original.Sub(price).Div(*original).Mul(decimal.NewFromInt(100)).Float64()
	return int(math.Round(pct))
}

// Facets returns the distinct values across lists in first-seen order.
func Facets(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
