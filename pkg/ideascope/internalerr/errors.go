package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrSizeMismatch  = errors.New("size mismatch")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMalformedIdea = errors.New("malformed idea")
)
