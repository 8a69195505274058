package pricing

import (
	"github.com/shopspring/decimal"

	"storefront_back_end/internal/config"
)

// Line is the minimum needed to price a cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the priced summary of a cart or order.
type Totals struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	Shipping             decimal.Decimal `json:"shipping"`
	Tax                  decimal.Decimal `json:"tax"`
	Discount             decimal.Decimal `json:"discount"`
	Total                decimal.Decimal `json:"total"`
	ItemCount            int             `json:"item_count"`
	FreeShipping         bool            `json:"free_shipping"`
	AmountToFreeShipping decimal.Decimal `json:"amount_to_free_shipping"`
}

// Calculator prices carts with the store's shipping and tax rules.
type Calculator struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

func NewCalculator(s config.StoreSettings) Calculator {
	return Calculator{
		FreeShippingThreshold: s.FreeShippingThreshold,
		ShippingFee:           s.ShippingFee,
		TaxRate:               s.TaxRate,
	}
}

// Default uses the stock settings: free shipping above 999, otherwise 99, 18% tax.
func Default() Calculator {
	return NewCalculator(config.DefaultSettings())
}

// Compute returns subtotal, shipping, tax and total for the given lines.
// Shipping is free once the subtotal is strictly above the threshold.
func (calc Calculator) Compute(lines []Line) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}

	shipping := calc.ShippingFee
	if subtotal.GreaterThan(calc.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(calc.TaxRate).Round(2)

	t := Totals{
		Subtotal:             subtotal,
		Shipping:             shipping,
		Tax:                  tax,
		Discount:             decimal.Zero,
		Total:                subtotal.Add(shipping).Add(tax),
		ItemCount:            count,
		FreeShipping:         shipping.IsZero(),
		AmountToFreeShipping: decimal.Zero,
	}
	if !t.FreeShipping {
		// one more unit of currency above the threshold
		t.AmountToFreeShipping = calc.FreeShippingThreshold.Add(decimal.NewFromInt(1)).Sub(subtotal)
	}
	return t
}
