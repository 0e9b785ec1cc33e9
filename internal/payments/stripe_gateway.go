package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/paymentmethod"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	pkgstripe "github.com/angelmondragon/fitroom-backend/pkg/stripe"
)

// StripeAPI exposes the subset of Stripe operations the gateway needs.
type StripeAPI interface {
	GetPaymentMethod(ctx context.Context, id string, params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeAPI wraps the initialized Stripe client so the gateway can be tested.
func NewStripeAPI(api *pkgstripe.Client) StripeAPI {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetPaymentMethod(ctx context.Context, id string, params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error) {
	if params == nil {
		params = &stripe.PaymentMethodParams{}
	}
	params.Context = ctx
	return paymentmethod.Get(id, params)
}

func (w *stripeClientWrapper) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// StripeGateway confirms charges as single-shot PaymentIntents.
type StripeGateway struct {
	api      StripeAPI
	currency string
	logg     *logger.Logger
}

// NewStripeGateway builds a gateway charging in currency.
func NewStripeGateway(api StripeAPI, currency string, logg *logger.Logger) (*StripeGateway, error) {
	if api == nil {
		return nil, fmt.Errorf("stripe api required")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &StripeGateway{api: api, currency: currency, logg: logg}, nil
}

// CollectPaymentMethod resolves a client-tokenized payment method reference.
func (g *StripeGateway) CollectPaymentMethod(ctx context.Context, ref string) (Method, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Method{}, ErrInvalidPaymentMethod
	}
	pm, err := g.api.GetPaymentMethod(ctx, ref, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return Method{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, ErrInvalidPaymentMethod.Message())
		}
		g.logg.Error(g.logg.WithField(ctx, "payment_method", ref), "payment method lookup failed", err)
		return Method{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	method := Method{Ref: pm.ID}
	if pm.Card != nil {
		method.Brand = string(pm.Card.Brand)
		method.Last4 = pm.Card.Last4
	}
	return method, nil
}

// Confirm creates and confirms a PaymentIntent. Declines surface as
// ErrDeclined; transport failures and timeouts as ErrUnavailable.
func (g *StripeGateway) Confirm(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if strings.TrimSpace(req.PaymentMethodRef) == "" {
		return Confirmation{}, ErrInvalidPaymentMethod
	}
	if req.AmountCents <= 0 {
		return Confirmation{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(g.currency),
		PaymentMethod: stripe.String(req.PaymentMethodRef),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := g.api.CreatePaymentIntent(ctx, params)
	if err != nil {
		if isDecline(err) {
			return Confirmation{}, declined(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Confirmation{}, fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		g.logg.Error(ctx, "payment confirmation failed", err)
		return Confirmation{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return Confirmation{}, declined(fmt.Errorf("payment intent %s ended in status %s", intent.ID, intent.Status))
	}
	return Confirmation{Reference: intent.ID, Status: string(intent.Status)}, nil
}

func isDecline(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Type == stripe.ErrorTypeCard || stripeErr.Code == stripe.ErrorCodeCardDeclined
}

func declined(cause error) error {
	return fmt.Errorf("%w: %w", ErrDeclined, cause)
}
