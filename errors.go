package zipstream

import "errors"

var (
	// ErrNotFound is returned when an archive directory does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrHistoryDisabled is returned when download history is requested but no store is configured
	ErrHistoryDisabled = errors.New("download history disabled")
)
