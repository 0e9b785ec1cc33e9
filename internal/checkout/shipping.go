package checkout

import (
	"fmt"
	"time"

	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
)

// ShippingOption is one entry of the shipping-method catalog.
type ShippingOption struct {
	Method       enums.ShippingMethod `json:"method"`
	Label        string               `json:"label"`
	ListCents    int64                `json:"list_cents"`
	Estimate     string               `json:"estimate"`
	BusinessDays int                  `json:"business_days"`
}

// Quote is a shipping option priced for a particular cart.
type Quote struct {
	ShippingOption
	PriceCents int64 `json:"price_cents"`
}

// Standard is listed at the pricing rules' standard rate.
var shippingCatalog = []ShippingOption{
	{Method: enums.ShippingMethodStandard, Label: "Standard", Estimate: "5-7 business days", BusinessDays: 7},
	{Method: enums.ShippingMethodExpress, Label: "Express", ListCents: 1999, Estimate: "2-3 business days", BusinessDays: 3},
	{Method: enums.ShippingMethodOvernight, Label: "Overnight", ListCents: 3499, Estimate: "Next business day", BusinessDays: 1},
}

// DefaultShippingMethod is applied when a shopper leaves the shipping step
// without picking one.
const DefaultShippingMethod = enums.ShippingMethodStandard

// ShippingOptions returns the catalog cheapest first, with standard listed at
// the rules' rate.
func ShippingOptions(rules pricing.Rules) []ShippingOption {
	out := make([]ShippingOption, len(shippingCatalog))
	copy(out, shippingCatalog)
	for i := range out {
		if out[i].Method == enums.ShippingMethodStandard {
			out[i].ListCents = rules.StandardShippingCents
		}
	}
	return out
}

func lookupShipping(rules pricing.Rules, method enums.ShippingMethod) (ShippingOption, bool) {
	for _, option := range ShippingOptions(rules) {
		if option.Method == method {
			return option, true
		}
	}
	return ShippingOption{}, false
}

// QuoteShipping prices method for a cart summary. Standard shipping follows
// the pricing rules, so it is free above the threshold; the others are
// always charged at list price.
func QuoteShipping(rules pricing.Rules, method enums.ShippingMethod, summary pricing.Summary) (Quote, error) {
	option, ok := lookupShipping(rules, method)
	if !ok {
		return Quote{}, fmt.Errorf("unknown shipping method %q", method)
	}
	price := option.ListCents
	if method == enums.ShippingMethodStandard {
		price = summary.ShippingCents
	}
	return Quote{ShippingOption: option, PriceCents: price}, nil
}

// QuoteAll prices every catalog option for a cart summary.
func QuoteAll(rules pricing.Rules, summary pricing.Summary) []Quote {
	quotes := make([]Quote, 0, len(shippingCatalog))
	for _, option := range shippingCatalog {
		quote, _ := QuoteShipping(rules, option.Method, summary)
		quotes = append(quotes, quote)
	}
	return quotes
}

// EstimateDelivery counts businessDays forward from from, skipping weekends.
// The result is truncated to the day in UTC.
func EstimateDelivery(from time.Time, businessDays int) time.Time {
	day := from.UTC().Truncate(24 * time.Hour)
	for added := 0; added < businessDays; {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		added++
	}
	return day
}
