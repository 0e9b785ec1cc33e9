package orders

import pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"

var (
	ErrOrderNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrInvalidTransition = pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed")
	ErrStatusChanged     = pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
	ErrInvalidCursor     = pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
)
