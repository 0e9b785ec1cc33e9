package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/fitroom-backend/api/controllers/dto"
	"github.com/angelmondragon/fitroom-backend/api/middleware"
	"github.com/angelmondragon/fitroom-backend/api/responses"
	"github.com/angelmondragon/fitroom-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/fitroom-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
)

type viewFunc func(ctx context.Context, svc checkoutsvc.Service, shopperID string, r *http.Request) (checkoutsvc.View, error)

// serveView runs fn for the authenticated shopper and renders the resulting session.
func serveView(svc checkoutsvc.Service, logg *logger.Logger, status int, fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := fn(r.Context(), svc, shopperID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, newSessionResponse(view))
	}
}

// ShippingMethods lists every shipping option priced for the shopper's cart.
func ShippingMethods(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotes, err := svc.ShippingQuotes(r.Context(), shopperID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuotesResponse(quotes))
	}
}

// Begin starts checkout at the shipping step, or resumes the active session.
func Begin(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, _ *http.Request) (checkoutsvc.View, error) {
		return svc.Begin(ctx, shopperID)
	})
}

func Get(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, _ *http.Request) (checkoutsvc.View, error) {
		return svc.Get(ctx, shopperID)
	})
}

// SetShipping saves the address draft and optional shipping method.
func SetShipping(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, r *http.Request) (checkoutsvc.View, error) {
		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkoutsvc.View{}, err
		}
		return svc.SetShipping(ctx, shopperID, payload.toInput())
	})
}

// SetPayment attaches a payment method reference.
func SetPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, r *http.Request) (checkoutsvc.View, error) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkoutsvc.View{}, err
		}
		return svc.SetPayment(ctx, shopperID, payload.PaymentMethodRef)
	})
}

func Advance(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, _ *http.Request) (checkoutsvc.View, error) {
		return svc.Advance(ctx, shopperID)
	})
}

func Back(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, http.StatusOK, func(ctx context.Context, svc checkoutsvc.Service, shopperID string, _ *http.Request) (checkoutsvc.View, error) {
		return svc.Back(ctx, shopperID)
	})
}

// Cancel discards the active session; the cart is left as is.
func Cancel(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), shopperID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// Submit charges the shopper and returns the placed order.
func Submit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Submit(r.Context(), shopperID)
		if errors.Is(err, checkoutsvc.ErrCartClearFailed) && order != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order placed but cart could not be cleared").
				WithDetails(map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber}))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewOrder(order))
	}
}
