package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	"github.com/angelmondragon/fitroom-backend/pkg/money"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

// Order is the shopper-facing view of a placed order.
type Order struct {
	ID                  uuid.UUID             `json:"id"`
	OrderNumber         string                `json:"order_number"`
	Status              enums.OrderStatus     `json:"status"`
	Lines               []OrderLine           `json:"lines"`
	Summary             Summary               `json:"summary"`
	ShippingAddress     types.ShippingAddress `json:"shipping_address"`
	ShippingMethod      enums.ShippingMethod  `json:"shipping_method"`
	PaymentReference    string                `json:"payment_reference"`
	EstimatedDeliveryAt time.Time             `json:"estimated_delivery_at"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

type OrderLine struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Brand     string       `json:"brand"`
	ImageURL  string       `json:"image_url,omitempty"`
	Size      string       `json:"size,omitempty"`
	Color     string       `json:"color,omitempty"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	LineTotal money.Amount `json:"line_total"`
}

func NewOrder(o *orders.Order) Order {
	lines := make([]OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Brand:     l.Brand,
			ImageURL:  l.ImageURL,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
			UnitPrice: money.NewAmount(l.UnitPriceCents),
			LineTotal: money.NewAmount(l.LineTotalCents),
		})
	}
	return Order{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		Status:              o.Status,
		Lines:               lines,
		Summary:             NewSummary(o.Summary),
		ShippingAddress:     o.ShippingAddress,
		ShippingMethod:      o.ShippingMethod,
		PaymentReference:    o.PaymentReference,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}
