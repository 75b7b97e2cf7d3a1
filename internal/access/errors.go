package access

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")

	// ErrUnavailable wraps store I/O failures. Resolver operations propagate
	// it to the caller unmodified; they never substitute an empty or full
	// scope for an answer they could not compute.
	ErrUnavailable = errors.New("store unavailable")
)
