package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/api/controllers/dto"
	checkoutsvc "github.com/angelmondragon/fitroom-backend/internal/checkout"
	"github.com/angelmondragon/fitroom-backend/internal/payments"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	"github.com/angelmondragon/fitroom-backend/pkg/money"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

type sessionResponse struct {
	ID              uuid.UUID              `json:"id"`
	Step            enums.CheckoutStep     `json:"step"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	Shipping        *quoteResponse         `json:"shipping,omitempty"`
	PaymentMethod   *payments.Method       `json:"payment_method,omitempty"`
	Totals          dto.Summary            `json:"totals"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type quoteResponse struct {
	Method       enums.ShippingMethod `json:"method"`
	Label        string               `json:"label"`
	Estimate     string               `json:"estimate"`
	BusinessDays int                  `json:"business_days"`
	ListPrice    money.Amount         `json:"list_price"`
	Price        money.Amount         `json:"price"`
}

func newSessionResponse(view checkoutsvc.View) sessionResponse {
	resp := sessionResponse{
		ID:            view.ID,
		Step:          view.Step,
		PaymentMethod: view.Payment,
		Totals:        dto.NewSummary(view.Totals),
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}
	if !view.Address.IsZero() {
		address := view.Address
		resp.ShippingAddress = &address
	}
	if view.Shipping != nil {
		quote := newQuoteResponse(*view.Shipping)
		resp.Shipping = &quote
	}
	return resp
}

func newQuoteResponse(q checkoutsvc.Quote) quoteResponse {
	return quoteResponse{
		Method:       q.Method,
		Label:        q.Label,
		Estimate:     q.Estimate,
		BusinessDays: q.BusinessDays,
		ListPrice:    money.NewAmount(q.ListCents),
		Price:        money.NewAmount(q.PriceCents),
	}
}

func newQuotesResponse(quotes []checkoutsvc.Quote) []quoteResponse {
	out := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, newQuoteResponse(q))
	}
	return out
}
