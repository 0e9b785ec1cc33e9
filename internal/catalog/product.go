// Package catalog resolves product snapshots for the cart.
package catalog

import (
	"slices"
	"strings"
)

// Product is the snapshot of a listing at the moment it is added to a cart.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	ImageURL       string   `json:"image_url"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	StockQty       int      `json:"stock_qty"`
	Sizes          []string `json:"sizes,omitempty"`
	Colors         []string `json:"colors,omitempty"`
}

// OffersSize reports whether size is selectable. An empty selection is
// always accepted, as is any selection on a product with no size list.
func (p Product) OffersSize(size string) bool {
	return offers(p.Sizes, size)
}

// OffersColor reports whether color is selectable, with the same rules as
// OffersSize.
func (p Product) OffersColor(color string) bool {
	return offers(p.Colors, color)
}

func offers(options []string, selected string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" || len(options) == 0 {
		return true
	}
	return slices.Contains(options, selected)
}
