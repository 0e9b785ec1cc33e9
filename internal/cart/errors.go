package cart

import (
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
)

var (
	ErrInvalidQuantity   = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	ErrQuantityTooLarge  = pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", MaxLineQuantity))
	ErrMissingProduct    = pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	ErrSizeUnavailable   = pkgerrors.New(pkgerrors.CodeValidation, "selected size is not offered")
	ErrColorUnavailable  = pkgerrors.New(pkgerrors.CodeValidation, "selected color is not offered")
	ErrInsufficientStock = pkgerrors.New(pkgerrors.CodeConflict, "requested quantity exceeds available stock")
	ErrProductNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrPersistence       = pkgerrors.New(pkgerrors.CodeDependency, "cart could not be saved")

	// ErrCorruptCart marks a stored cart that exists but cannot be decoded.
	ErrCorruptCart = errors.New("stored cart is unreadable")
)

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
