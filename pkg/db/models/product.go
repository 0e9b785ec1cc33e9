package models

import "time"

// Product is the catalog listing a cart line snapshots at add time.
type Product struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	Brand      string    `gorm:"column:brand;not null"`
	ImageURL   string    `gorm:"column:image_url;not null;default:''"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	StockQty   int       `gorm:"column:stock_qty;not null;default:0"`
	Sizes      []string  `gorm:"column:sizes;type:jsonb;serializer:json"`
	Colors     []string  `gorm:"column:colors;type:jsonb;serializer:json"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
