// Package domain holds the error taxonomy shared by every domain package.
// Package-specific errors (account, user, currency) wrap one of these so callers
// can branch on the kind with errors.Is without knowing the concrete package.
package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("conflict")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrConcurrentModification is returned when a record changed between read and write.
	// It is transient: the operation can be retried from the start.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrRetryExhausted is returned when a transient failure persisted past the retry bound.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// IsTransient reports whether err may succeed if the whole operation is repeated.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
