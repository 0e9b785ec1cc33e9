// Package pricing derives order summaries from cart lines.
package pricing

import "github.com/angelmondragon/fitroom-backend/pkg/config"

const bpsDenominator = 10000

// Rules are the business constants applied to every summary.
type Rules struct {
	TaxRateBps                 int64
	FreeShippingThresholdCents int64
	StandardShippingCents      int64
	Discount                   DiscountRule
}

// DefaultRules returns 8% tax, free shipping from $100.00 and $9.99 standard shipping.
func DefaultRules() Rules {
	return Rules{
		TaxRateBps:                 800,
		FreeShippingThresholdCents: 10000,
		StandardShippingCents:      999,
	}
}

// RulesFromConfig builds Rules from the pricing config section.
func RulesFromConfig(cfg config.PricingConfig) Rules {
	return Rules{
		TaxRateBps:                 cfg.TaxRateBps,
		FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
		StandardShippingCents:      cfg.StandardShippingCents,
	}
}

// Line is the minimal view of a cart line the engine prices.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Summary is derived from a line list and never mutated independently.
type Summary struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
	ItemCount     int   `json:"item_count"`
}

// DiscountRule returns the discount in cents for a subtotal. Results are
// clamped to [0, subtotal].
type DiscountRule func(lines []Line, subtotalCents int64) int64

// Summarize computes the order summary. It performs no I/O and depends only
// on its arguments.
func Summarize(lines []Line, rules Rules) Summary {
	var s Summary
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		s.SubtotalCents += line.UnitPriceCents * int64(line.Quantity)
		s.ItemCount += line.Quantity
	}

	s.TaxCents = Tax(s.SubtotalCents, rules.TaxRateBps)
	s.ShippingCents = Shipping(s.SubtotalCents, s.ItemCount, rules)
	s.DiscountCents = discount(lines, s.SubtotalCents, rules.Discount)
	s.TotalCents = s.SubtotalCents + s.TaxCents + s.ShippingCents - s.DiscountCents
	return s
}

// Tax rounds half up to the nearest cent.
func Tax(subtotalCents, rateBps int64) int64 {
	if subtotalCents <= 0 || rateBps <= 0 {
		return 0
	}
	return (subtotalCents*rateBps + bpsDenominator/2) / bpsDenominator
}

// Shipping is free for an empty cart and at or above the free threshold.
func Shipping(subtotalCents int64, itemCount int, rules Rules) int64 {
	if itemCount == 0 {
		return 0
	}
	if subtotalCents >= rules.FreeShippingThresholdCents {
		return 0
	}
	return rules.StandardShippingCents
}

// WithShipping replaces the shipping figure and recomputes the total.
func (s Summary) WithShipping(shippingCents int64) Summary {
	s.ShippingCents = shippingCents
	s.TotalCents = s.SubtotalCents + s.TaxCents + s.ShippingCents - s.DiscountCents
	return s
}

func discount(lines []Line, subtotal int64, rule DiscountRule) int64 {
	if rule == nil || subtotal <= 0 {
		return 0
	}
	d := rule(lines, subtotal)
	if d < 0 {
		return 0
	}
	if d > subtotal {
		return subtotal
	}
	return d
}
