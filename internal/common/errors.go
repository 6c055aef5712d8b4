package common

import "errors"

// Error taxonomy shared by the in-memory stores. Handlers map these onto
// 401/403/404/400 via errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
