package payments

import (
	"context"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
)

var (
	ErrDeclined             = pkgerrors.New(pkgerrors.CodePaymentDeclined, "card declined")
	ErrInvalidPaymentMethod = pkgerrors.New(pkgerrors.CodeValidation, "payment method is not usable")
	ErrUnavailable          = pkgerrors.New(pkgerrors.CodeDependency, "payment provider unavailable")
)

// Method is the opaque reference checkout stores plus what a shopper needs to
// recognize it on the review step.
type Method struct {
	Ref   string `json:"ref"`
	Brand string `json:"brand,omitempty"`
	Last4 string `json:"last4,omitempty"`
}

// ConfirmRequest charges AmountCents against PaymentMethodRef. Replays with
// the same IdempotencyKey return the original outcome.
type ConfirmRequest struct {
	PaymentMethodRef string
	AmountCents      int64
	IdempotencyKey   string
	Metadata         map[string]string
}

// Confirmation is a successful charge.
type Confirmation struct {
	Reference string
	Status    string
}

// Gateway is the payment collaborator consumed by checkout.
type Gateway interface {
	CollectPaymentMethod(ctx context.Context, ref string) (Method, error)
	Confirm(ctx context.Context, req ConfirmRequest) (Confirmation, error)
}
