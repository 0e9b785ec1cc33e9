package middleware

import (
	"context"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
)

type contextKey string

const (
	ctxShopperID contextKey = "shopper_id"
	ctxRole      contextKey = "actor_role"
)

// ShopperIDFromContext returns the authenticated shopper or "".
func ShopperIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopperID).(string); ok {
		return v
	}
	return ""
}

// RequireShopperID returns the authenticated shopper or an UNAUTHORIZED error.
func RequireShopperID(ctx context.Context) (string, error) {
	shopperID := ShopperIDFromContext(ctx)
	if shopperID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "shopper context missing")
	}
	return shopperID, nil
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithShopperID injects the shopper identifier into the context.
func WithShopperID(ctx context.Context, shopperID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShopperID, shopperID)
}
