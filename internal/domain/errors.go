package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure surfaced by the ledger, reporting and
// repository layers wraps one of these; use errors.Is at the boundary.
var (
	// ErrNotFound is returned when a referenced asset or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller lacks the capability for
	// the target asset.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOperation is returned for amount, bound, self-transfer
	// and date-range violations.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConflict is returned when storage detects a concurrent
	// mutation of the same asset.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrUnavailable is returned for storage or transport failures.
	ErrUnavailable = errors.New("storage unavailable")
)

// InvalidOperationError names the specific violated constraint.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

// Invalidf builds an InvalidOperationError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &InvalidOperationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
