package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/internal/pricing"
	"github.com/angelmondragon/fitroom-backend/pkg/db/models"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

// Line is one cart line frozen at submission time.
type Line struct {
	CartLineID     uuid.UUID `json:"cart_line_id"`
	ProductID      string    `json:"product_id"`
	Name           string    `json:"name"`
	Brand          string    `json:"brand"`
	ImageURL       string    `json:"image_url,omitempty"`
	Size           string    `json:"size,omitempty"`
	Color          string    `json:"color,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// Order is an immutable snapshot of a submitted checkout plus its lifecycle status.
type Order struct {
	ID                  uuid.UUID             `json:"id"`
	OrderNumber         string                `json:"order_number"`
	ShopperID           string                `json:"shopper_id"`
	Status              enums.OrderStatus     `json:"status"`
	Lines               []Line                `json:"lines"`
	Summary             pricing.Summary       `json:"summary"`
	ShippingAddress     types.ShippingAddress `json:"shipping_address"`
	ShippingMethod      enums.ShippingMethod  `json:"shipping_method"`
	PaymentMethodRef    string                `json:"payment_method_ref"`
	PaymentReference    string                `json:"payment_reference"`
	EstimatedDeliveryAt time.Time             `json:"estimated_delivery_at"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// CreateInput carries everything checkout knows at the moment payment succeeded.
type CreateInput struct {
	ShopperID           string
	IdempotencyKey      string
	Lines               []Line
	Summary             pricing.Summary
	Address             types.ShippingAddress
	Method              enums.ShippingMethod
	PaymentMethodRef    string
	PaymentReference    string
	EstimatedDeliveryAt time.Time
}

func toModel(id uuid.UUID, number string, in CreateInput) *models.Order {
	row := &models.Order{
		ID:                  id,
		OrderNumber:         number,
		ShopperID:           in.ShopperID,
		IdempotencyKey:      in.IdempotencyKey,
		Status:              enums.OrderStatusConfirmed,
		SubtotalCents:       in.Summary.SubtotalCents,
		TaxCents:            in.Summary.TaxCents,
		ShippingCents:       in.Summary.ShippingCents,
		DiscountCents:       in.Summary.DiscountCents,
		TotalCents:          in.Summary.TotalCents,
		ItemCount:           in.Summary.ItemCount,
		ShippingAddress:     in.Address,
		ShippingMethod:      in.Method,
		PaymentMethodRef:    in.PaymentMethodRef,
		PaymentReference:    in.PaymentReference,
		EstimatedDeliveryAt: in.EstimatedDeliveryAt.UTC(),
	}
	row.LineItems = make([]models.OrderLineItem, 0, len(in.Lines))
	for i, line := range in.Lines {
		row.LineItems = append(row.LineItems, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        id,
			Position:       i,
			CartLineID:     line.CartLineID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			Brand:          line.Brand,
			ImageURL:       line.ImageURL,
			Size:           line.Size,
			Color:          line.Color,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return row
}

func fromModel(row *models.Order) *Order {
	if row == nil {
		return nil
	}
	order := &Order{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		ShopperID:   row.ShopperID,
		Status:      row.Status,
		Summary: pricing.Summary{
			SubtotalCents: row.SubtotalCents,
			TaxCents:      row.TaxCents,
			ShippingCents: row.ShippingCents,
			DiscountCents: row.DiscountCents,
			TotalCents:    row.TotalCents,
			ItemCount:     row.ItemCount,
		},
		ShippingAddress:     row.ShippingAddress,
		ShippingMethod:      row.ShippingMethod,
		PaymentMethodRef:    row.PaymentMethodRef,
		PaymentReference:    row.PaymentReference,
		EstimatedDeliveryAt: row.EstimatedDeliveryAt.UTC(),
		CreatedAt:           row.CreatedAt.UTC(),
		UpdatedAt:           row.UpdatedAt.UTC(),
	}
	order.Lines = make([]Line, 0, len(row.LineItems))
	for _, item := range row.LineItems {
		order.Lines = append(order.Lines, Line{
			CartLineID:     item.CartLineID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Brand:          item.Brand,
			ImageURL:       item.ImageURL,
			Size:           item.Size,
			Color:          item.Color,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return order
}
