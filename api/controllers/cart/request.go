package cart

import cartsvc "github.com/angelmondragon/fitroom-backend/internal/cart"

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
	Size      string `json:"size,omitempty" validate:"max=32"`
	Color     string `json:"color,omitempty" validate:"max=32"`
}

func (r addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Size:      r.Size,
		Color:     r.Color,
	}
}

// Quantity may be zero or negative; the cart treats that as a removal.
type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}
