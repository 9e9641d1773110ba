package store

import (
	"errors"
	"fmt"
)

// Expected outcomes are returned as these values so the presentation layer
// can render each one distinctly. Anything else coming out of a store
// operation is an unexpected database failure.
var (
	ErrNotFound        = errors.New("account not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrDeviceConflict  = errors.New("device already verified with another account")
	ErrAccountConflict = errors.New("account already verified on a different device")
	ErrInvalidTier     = errors.New("invalid coupon tier")
	ErrNotVerified     = errors.New("account is not verified")
	ErrOutOfStock      = errors.New("out of stock")
	ErrNoAward         = errors.New("no referral award due")
)

// InsufficientPointsError carries the exact numbers so the caller can show
// them to the user.
type InsufficientPointsError struct {
	Required int64
	Held     int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough points: required %d, have %d", e.Required, e.Held)
}
