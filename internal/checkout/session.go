package checkout

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/fitroom-backend/internal/orders"
	"github.com/angelmondragon/fitroom-backend/internal/payments"
	"github.com/angelmondragon/fitroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/types"
)

// Session is one shopper's in-progress checkout.
type Session struct {
	ID        uuid.UUID             `json:"id"`
	ShopperID string                `json:"shopper_id"`
	Step      enums.CheckoutStep    `json:"step"`
	Address   types.ShippingAddress `json:"shipping_address"`
	Method    enums.ShippingMethod  `json:"shipping_method,omitempty"`
	Payment   *payments.Method      `json:"payment_method,omitempty"`
	Order     *orders.Order         `json:"order,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func newSession(shopperID string, now time.Time) Session {
	return Session{
		ID:        uuid.New(),
		ShopperID: shopperID,
		Step:      enums.CheckoutStepShipping,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PaymentMethodRef returns the collected reference or "".
func (s Session) PaymentMethodRef() string {
	if s.Payment == nil {
		return ""
	}
	return s.Payment.Ref
}

// advance moves one step forward after validating the current one.
func (s *Session) advance() error {
	switch s.Step {
	case enums.CheckoutStepShipping:
		if err := validateAddress(s.Address); err != nil {
			return err
		}
		if s.Method == "" {
			s.Method = DefaultShippingMethod
		}
		s.Step = enums.CheckoutStepPayment
	case enums.CheckoutStepPayment:
		if strings.TrimSpace(s.PaymentMethodRef()) == "" {
			return ErrMissingPaymentMethod
		}
		s.Step = enums.CheckoutStepReview
	default:
		return fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, s.Step)
	}
	return nil
}

// back moves one step backward.
func (s *Session) back() error {
	switch s.Step {
	case enums.CheckoutStepPayment:
		s.Step = enums.CheckoutStepShipping
	case enums.CheckoutStepReview:
		s.Step = enums.CheckoutStepPayment
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, s.Step)
	}
	return nil
}

func (s *Session) requireStep(step enums.CheckoutStep) error {
	if s.Step == enums.CheckoutStepSubmitting {
		return ErrSubmissionInFlight
	}
	if s.Step != step {
		return fmt.Errorf("%w: session is at %s", ErrWrongStep, s.Step)
	}
	return nil
}

var addressValidator = newAddressValidator()

func newAddressValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

var addressFieldLabels = map[string]string{
	"first_name":  "first name",
	"last_name":   "last name",
	"line1":       "address line 1",
	"city":        "city",
	"state":       "state",
	"postal_code": "postal code",
}

// validateAddress reports every missing required field, e.g.
// "missing shipping city".
func validateAddress(address types.ShippingAddress) error {
	err := addressValidator.Struct(address.Normalize())
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	fields := make([]string, 0, len(fieldErrs))
	labels := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		label, ok := addressFieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		labels = append(labels, label)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "missing shipping "+strings.Join(labels, ", ")).
		WithDetails(map[string]any{"missing": fields})
}
