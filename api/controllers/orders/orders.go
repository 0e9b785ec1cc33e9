package orders

import (
	"net/http"

	"github.com/angelmondragon/fitroom-backend/api/controllers/dto"
	"github.com/angelmondragon/fitroom-backend/api/middleware"
	"github.com/angelmondragon/fitroom-backend/api/responses"
	"github.com/angelmondragon/fitroom-backend/api/validators"
	ordersvc "github.com/angelmondragon/fitroom-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
	"github.com/angelmondragon/fitroom-backend/pkg/logger"
	"github.com/angelmondragon/fitroom-backend/pkg/pagination"
)

const maxCancelReasonLen = 500

type cancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type listResponse struct {
	Orders     []dto.Order `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// OrderList returns the shopper's orders newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{Limit: limit, Cursor: cursor}

		page, err := svc.List(r.Context(), shopperID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := listResponse{Orders: make([]dto.Order, 0, len(page.Items)), NextCursor: page.NextCursor}
		for i := range page.Items {
			resp.Orders = append(resp.Orders, dto.NewOrder(&page.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// OrderDetail returns one order owned by the shopper.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), shopperID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewOrder(order))
	}
}

// OrderCancel cancels an order that has not shipped yet.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		shopperID, err := middleware.RequireShopperID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), shopperID, orderID, validators.SanitizeString(payload.Reason, maxCancelReasonLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewOrder(order))
	}
}
