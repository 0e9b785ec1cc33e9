// Package cart owns the live list of shopper cart lines and its persistence.
package cart

import (
	"slices"
	"time"

	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/google/uuid"
)

// LineItem is one distinct purchasable configuration in a cart.
type LineItem struct {
	ID             uuid.UUID       `json:"id"`
	Product        catalog.Product `json:"product"`
	Quantity       int             `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	AddedAt        time.Time       `json:"added_at"`
}

// Key identifies lines that must be merged rather than duplicated.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

// Key returns the merge identity of the line.
func (l LineItem) Key() Key {
	return Key{ProductID: l.Product.ID, Size: l.Size, Color: l.Color}
}

// LineTotalCents is the locked unit price times quantity.
func (l LineItem) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// State is the read model published after every committed mutation.
type State struct {
	Items   []LineItem      `json:"items"`
	Summary pricing.Summary `json:"summary"`
}

// IsEmpty reports whether the cart holds no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func newState(items []LineItem, rules pricing.Rules) State {
	if items == nil {
		items = []LineItem{}
	}
	return State{Items: items, Summary: pricing.Summarize(pricingLines(items), rules)}
}

func pricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPriceCents: item.UnitPriceCents, Quantity: item.Quantity})
	}
	return lines
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Product.Sizes = slices.Clone(item.Product.Sizes)
		item.Product.Colors = slices.Clone(item.Product.Colors)
		out[i] = item
	}
	return out
}

func (s State) clone() State {
	return State{Items: cloneItems(s.Items), Summary: s.Summary}
}

func indexOfKey(items []LineItem, key Key) int {
	for i, item := range items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func indexOfID(items []LineItem, id uuid.UUID) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
