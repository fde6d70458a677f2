package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)
	ErrAnnotationNotFound   = fmt.Errorf("%w: annotation", ErrNotFound)
	ErrGroupNotFound        = fmt.Errorf("%w: group", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("%w: subscription", ErrNotFound)
	ErrAuthTicketNotFound   = fmt.Errorf("%w: auth ticket", ErrNotFound)
	ErrTokenNotFound        = fmt.Errorf("%w: token", ErrNotFound)

	// ErrUsernameExists indicates the username is taken within the authority.
	ErrUsernameExists = fmt.Errorf("%w: username", ErrDuplicate)
	// ErrEmailExists indicates the email is taken within the authority.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Every entity-specific error wraps ErrNotFound, so a single errors.Is suffices.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
