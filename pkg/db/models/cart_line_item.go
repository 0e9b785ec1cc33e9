package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLineItem persists one line of a shopper's cart together with the
// product snapshot captured when it was added.
type CartLineItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID            string    `gorm:"column:cart_id;not null;index:idx_cart_line_items_cart_position,priority:1"`
	Position          int       `gorm:"column:position;not null;index:idx_cart_line_items_cart_position,priority:2"`
	ProductID         string    `gorm:"column:product_id;not null"`
	ProductName       string    `gorm:"column:product_name;not null"`
	ProductBrand      string    `gorm:"column:product_brand;not null"`
	ProductImageURL   string    `gorm:"column:product_image_url;not null;default:''"`
	ProductPriceCents int64     `gorm:"column:product_price_cents;not null"`
	ProductStockQty   int       `gorm:"column:product_stock_qty;not null"`
	ProductSizes      []string  `gorm:"column:product_sizes;type:jsonb;serializer:json"`
	ProductColors     []string  `gorm:"column:product_colors;type:jsonb;serializer:json"`
	Quantity          int       `gorm:"column:quantity;not null"`
	UnitPriceCents    int64     `gorm:"column:unit_price_cents;not null"`
	Size              string    `gorm:"column:size;not null;default:''"`
	Color             string    `gorm:"column:color;not null;default:''"`
	AddedAt           time.Time `gorm:"column:added_at;not null"`
}
