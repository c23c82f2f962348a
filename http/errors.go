package http

import "errors"

// ErrInvalidParameter is returned when a query parameter cannot be parsed.
var ErrInvalidParameter = errors.New("invalid parameter")
