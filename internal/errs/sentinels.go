// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid caller identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation")

	// ErrUnsupported indicates an operation the handler does not implement.
	ErrUnsupported = errors.New("unsupported operation")
)
