package checkout

import pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"

var (
	ErrSessionNotFound      = pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	ErrInvalidTransition    = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout step transition not allowed")
	ErrWrongStep            = pkgerrors.New(pkgerrors.CodeStateConflict, "action not allowed at the current checkout step")
	ErrEmptyCart            = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	ErrMissingPaymentMethod = pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	ErrUnknownShipping      = pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	ErrSubmissionInFlight   = pkgerrors.New(pkgerrors.CodeConflict, "checkout submission already in progress")
	ErrPaymentFailed        = pkgerrors.New(pkgerrors.CodeDependency, "payment could not be confirmed")
	ErrOrderNotSaved        = pkgerrors.New(pkgerrors.CodeDependency, "order could not be saved")
	ErrCartClearFailed      = pkgerrors.New(pkgerrors.CodeDependency, "order placed but cart could not be cleared")
)
