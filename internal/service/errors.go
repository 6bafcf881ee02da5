package service

import "errors"

// Sentinel errors the handler layer maps onto HTTP statuses. Everything
// in this core is recoverable locally; none of these is process-fatal.
var (
	// ErrNotFound marks an absent incident or message id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an access guard denial. No partial side effect
	// occurs when it is returned.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation failed")
)
