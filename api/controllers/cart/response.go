package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/api/controllers/dto"
	cartsvc "github.com/angelmondragon/fitroom-backend/internal/cart"
	"github.com/angelmondragon/fitroom-backend/pkg/money"
)

type cartResponse struct {
	Items   []lineItemResponse `json:"items"`
	Summary dto.Summary        `json:"summary"`
}

type lineItemResponse struct {
	ID        uuid.UUID    `json:"id"`
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Brand     string       `json:"brand"`
	ImageURL  string       `json:"image_url,omitempty"`
	Size      string       `json:"size,omitempty"`
	Color     string       `json:"color,omitempty"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	LineTotal money.Amount `json:"line_total"`
	AddedAt   time.Time    `json:"added_at"`
}

func newCartResponse(state cartsvc.State) cartResponse {
	items := make([]lineItemResponse, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, lineItemResponse{
			ID:        item.ID,
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Brand:     item.Product.Brand,
			ImageURL:  item.Product.ImageURL,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: money.NewAmount(item.UnitPriceCents),
			LineTotal: money.NewAmount(item.LineTotalCents()),
			AddedAt:   item.AddedAt,
		})
	}
	return cartResponse{Items: items, Summary: dto.NewSummary(state.Summary)}
}
