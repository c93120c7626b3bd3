package services

import "errors"

// sentinel errors handlers map onto HTTP statuses. wrap them with
// fmt.Errorf("...: %w", ...) so errors.Is keeps working.
var (
	// ErrNotFound marks a referenced photo, comment or user as absent
	ErrNotFound = errors.New("not found")
	// ErrValidation marks bad or missing request data; the operation was
	// aborted with no state change
	ErrValidation = errors.New("validation failed")
)
