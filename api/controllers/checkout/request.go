package checkout

import (
	checkoutsvc "github.com/angelmondragon/fitroom-backend/internal/checkout"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

// Address fields are validated by the checkout service when the shopper
// advances, so partial drafts are accepted here.
type shippingRequest struct {
	Address types.ShippingAddress `json:"address" validate:"-"`
	Method  string                `json:"method,omitempty" validate:"omitempty,max=32"`
}

func (r shippingRequest) toInput() checkoutsvc.ShippingInput {
	return checkoutsvc.ShippingInput{Address: r.Address, Method: r.Method}
}

type paymentRequest struct {
	PaymentMethodRef string `json:"payment_method_ref" validate:"required,max=255"`
}
