package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Capacity errors
	ErrSoldOut = errors.New("tier is sold out")

	// Hold errors
	ErrHoldNotFound = errors.New("reservation not found")

	// Validation errors
	ErrInvalidEventID   = errors.New("invalid event id")
	ErrInvalidTierID    = errors.New("invalid tier id")
	ErrInvalidGroupSize = fmt.Errorf("group size must be between 1 and %d", MaxGroupSize)
	ErrInvalidLeadEmail = errors.New("lead email is required")

	// Catalog errors
	ErrEventNotFound = errors.New("event not found")
	ErrTierNotFound  = errors.New("tier not found")
)

// InsufficientCapacityError is returned when a tier still has inventory
// but not enough for the requested quantity.
type InsufficientCapacityError struct {
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d available", e.Available)
}

// IsCapacityError reports whether the error is a capacity refusal that
// should surface to the buyer rather than be retried.
func IsCapacityError(err error) bool {
	var insufficient *InsufficientCapacityError
	return errors.Is(err, ErrSoldOut) || errors.As(err, &insufficient)
}

// IsValidationError reports whether the error is a bad-request condition
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidTierID) ||
		errors.Is(err, ErrInvalidGroupSize) ||
		errors.Is(err, ErrInvalidLeadEmail)
}

// IsNotFoundError reports whether the error is a lookup miss
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTierNotFound) ||
		errors.Is(err, ErrHoldNotFound)
}
