package payloads

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/pkg/enums"
)

// OrderConfirmedEvent is emitted once a paid order is persisted.
type OrderConfirmedEvent struct {
	OrderID             uuid.UUID            `json:"order_id"`
	OrderNumber         string               `json:"order_number"`
	ShopperID           string               `json:"shopper_id"`
	TotalCents          int64                `json:"total_cents"`
	ItemCount           int                  `json:"item_count"`
	ShippingMethod      enums.ShippingMethod `json:"shipping_method"`
	PaymentReference    string               `json:"payment_reference"`
	EstimatedDeliveryAt time.Time            `json:"estimated_delivery_at"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	ShopperID   string            `json:"shopper_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Reason      string            `json:"reason,omitempty"`
}

// Validate rejects confirmations consumers could not act on.
func (e *OrderConfirmedEvent) Validate() error {
	if e.OrderID == uuid.Nil {
		return errors.New("order_id required")
	}
	if e.OrderNumber == "" {
		return errors.New("order_number required")
	}
	if e.TotalCents < 0 {
		return errors.New("total_cents must not be negative")
	}
	return nil
}

// Validate rejects transitions into an unknown status.
func (e *OrderStatusChangedEvent) Validate() error {
	if !e.To.IsValid() {
		return fmt.Errorf("unknown target status %q", e.To)
	}
	return nil
}
