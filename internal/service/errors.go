package service

import (
	"errors"
	"fmt"

	"storefront/internal/store"
)

// Sentinel errors mapped to HTTP statuses at the API layer. Services
// wrap them with fmt.Errorf("%w: ...") so handlers can classify with
// errors.Is while logs keep the detail.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// mapStoreErr translates store-level lookup failures into the service
// taxonomy so handlers only ever see service sentinels.
func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return err
}
