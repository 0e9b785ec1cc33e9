package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fitroom-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound is returned when no active product matches the id.
var ErrProductNotFound = errors.New("product not found")

// Lookup is the catalog surface consumed by cart Add.
type Lookup interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// Repository reads products from the products table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProduct returns the current snapshot of an active product.
func (r *Repository) GetProduct(ctx context.Context, productID string) (Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("load product %s: %w", productID, err)
	}
	return fromModel(row), nil
}

// Upsert writes a product row, replacing any existing row with the same id.
func (r *Repository) Upsert(ctx context.Context, p Product) error {
	row := models.Product{
		ID:         p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		ImageURL:   p.ImageURL,
		PriceCents: p.UnitPriceCents,
		StockQty:   p.StockQty,
		Sizes:      p.Sizes,
		Colors:     p.Colors,
		IsActive:   true,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func fromModel(row models.Product) Product {
	return Product{
		ID:             row.ID,
		Name:           row.Name,
		Brand:          row.Brand,
		ImageURL:       row.ImageURL,
		UnitPriceCents: row.PriceCents,
		StockQty:       row.StockQty,
		Sizes:          row.Sizes,
		Colors:         row.Colors,
	}
}
