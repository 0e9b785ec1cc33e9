package checkout

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
)

const submitScope = "checkout-submit"

type claimer interface {
	CheckAndMark(ctx context.Context, scope, key string) (bool, error)
	Delete(ctx context.Context, scope, key string) error
}

// SubmissionGuard lets at most one submission per shopper run at a time.
type SubmissionGuard struct {
	claims claimer
}

// NewSubmissionGuard wraps a claim store. A nil store disables the guard.
func NewSubmissionGuard(claims claimer) *SubmissionGuard {
	return &SubmissionGuard{claims: claims}
}

// Acquire claims the shopper's submission slot.
func (g *SubmissionGuard) Acquire(ctx context.Context, shopperID string) error {
	if g == nil || g.claims == nil {
		return nil
	}
	already, err := g.claims.CheckAndMark(ctx, submitScope, strings.TrimSpace(shopperID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submission guard unavailable")
	}
	if already {
		return ErrSubmissionInFlight
	}
	return nil
}

// Release frees the slot so the shopper can submit again.
func (g *SubmissionGuard) Release(ctx context.Context, shopperID string) error {
	if g == nil || g.claims == nil {
		return nil
	}
	return g.claims.Delete(ctx, submitScope, strings.TrimSpace(shopperID))
}
