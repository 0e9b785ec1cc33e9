package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/fitroom-backend/internal/catalog"
	"github.com/angelmondragon/fitroom-backend/pkg/db/models"
	"gorm.io/gorm"
)

// GormRepository stores cart lines as rows of cart_line_items.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a cart repository bound to the provided DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) *GormRepository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// ReadCart returns the persisted lines in their stored order.
func (r *GormRepository) ReadCart(ctx context.Context, cartID string) ([]LineItem, error) {
	var rows []models.CartLineItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, lineFromRow(row))
	}
	return items, nil
}

// WriteCart atomically replaces every line of the cart.
func (r *GormRepository) WriteCart(ctx context.Context, cartID string, items []LineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartLineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		rows := make([]models.CartLineItem, 0, len(items))
		for i, item := range items {
			rows = append(rows, rowFromLine(cartID, i, item))
		}
		return tx.Create(&rows).Error
	})
}

func rowFromLine(cartID string, position int, item LineItem) models.CartLineItem {
	return models.CartLineItem{
		ID:                item.ID,
		CartID:            cartID,
		Position:          position,
		ProductID:         item.Product.ID,
		ProductName:       item.Product.Name,
		ProductBrand:      item.Product.Brand,
		ProductImageURL:   item.Product.ImageURL,
		ProductPriceCents: item.Product.UnitPriceCents,
		ProductStockQty:   item.Product.StockQty,
		ProductSizes:      item.Product.Sizes,
		ProductColors:     item.Product.Colors,
		Quantity:          item.Quantity,
		UnitPriceCents:    item.UnitPriceCents,
		Size:              item.Size,
		Color:             item.Color,
		AddedAt:           item.AddedAt.UTC(),
	}
}

func lineFromRow(row models.CartLineItem) LineItem {
	return LineItem{
		ID: row.ID,
		Product: catalog.Product{
			ID:             row.ProductID,
			Name:           row.ProductName,
			Brand:          row.ProductBrand,
			ImageURL:       row.ProductImageURL,
			UnitPriceCents: row.ProductPriceCents,
			StockQty:       row.ProductStockQty,
			Sizes:          row.ProductSizes,
			Colors:         row.ProductColors,
		},
		Quantity:       row.Quantity,
		UnitPriceCents: row.UnitPriceCents,
		Size:           row.Size,
		Color:          row.Color,
		AddedAt:        row.AddedAt.In(time.UTC),
	}
}
