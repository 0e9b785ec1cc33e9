// Package dto holds response shapes shared by several controllers.
package dto

import (
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/money"
)

// Summary is the wire form of a pricing summary.
type Summary struct {
	Subtotal  money.Amount `json:"subtotal"`
	Tax       money.Amount `json:"tax"`
	Shipping  money.Amount `json:"shipping"`
	Discount  money.Amount `json:"discount"`
	Total     money.Amount `json:"total"`
	ItemCount int          `json:"item_count"`
}

func NewSummary(s pricing.Summary) Summary {
	return Summary{
		Subtotal:  money.NewAmount(s.SubtotalCents),
		Tax:       money.NewAmount(s.TaxCents),
		Shipping:  money.NewAmount(s.ShippingCents),
		Discount:  money.NewAmount(s.DiscountCents),
		Total:     money.NewAmount(s.TotalCents),
		ItemCount: s.ItemCount,
	}
}
