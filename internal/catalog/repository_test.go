package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/fitroom-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func TestRepositoryGetProduct(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Product{
		ID:             "p1",
		Name:           "Linen Shirt",
		Brand:          "Atelier",
		ImageURL:       "https://cdn.example.com/p1.jpg",
		UnitPriceCents: 5900,
		StockQty:       4,
		Sizes:          []string{"S", "M", "L"},
		Colors:         []string{"white"},
	}))

	p, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", p.Name)
	assert.Equal(t, int64(5900), p.UnitPriceCents)
	assert.Equal(t, []string{"S", "M", "L"}, p.Sizes)

	require.NoError(t, repo.Upsert(ctx, Product{ID: "p1", Name: "Linen Shirt", Brand: "Atelier", UnitPriceCents: 6900, StockQty: 2}))
	p, err = repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(6900), p.UnitPriceCents)
}

func TestRepositoryGetProductNotFound(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	_, err := repo.GetProduct(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestProductOffers(t *testing.T) {
	p := Product{Sizes: []string{"S", "M"}}
	assert.True(t, p.OffersSize("M"))
	assert.False(t, p.OffersSize("XL"))
	assert.True(t, p.OffersSize(""))
	assert.True(t, p.OffersColor("red"))

	p.Colors = []string{"navy"}
	assert.True(t, p.OffersColor(" navy "))
	assert.False(t, p.OffersColor("red"))
}
