package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

// Order is the durable result of a successful checkout.
type Order struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber         string                `gorm:"column:order_number;not null;uniqueIndex"`
	ShopperID           string                `gorm:"column:shopper_id;not null;index"`
	IdempotencyKey      string                `gorm:"column:idempotency_key;not null;uniqueIndex"`
	Status              enums.OrderStatus     `gorm:"column:status;type:order_status;not null"`
	SubtotalCents       int64                 `gorm:"column:subtotal_cents;not null"`
	TaxCents            int64                 `gorm:"column:tax_cents;not null"`
	ShippingCents       int64                 `gorm:"column:shipping_cents;not null"`
	DiscountCents       int64                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents          int64                 `gorm:"column:total_cents;not null"`
	ItemCount           int                   `gorm:"column:item_count;not null"`
	ShippingAddress     types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;not null"`
	ShippingMethod      enums.ShippingMethod  `gorm:"column:shipping_method;not null"`
	PaymentMethodRef    string                `gorm:"column:payment_method_ref;not null"`
	PaymentReference    string                `gorm:"column:payment_reference;not null;default:''"`
	EstimatedDeliveryAt time.Time             `gorm:"column:estimated_delivery_at;not null"`
	LineItems           []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
