package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("insufficient privileges")
	ErrAccessibility  = errors.New("already claimed by another account")
	ErrRateLimited    = errors.New("too many requests")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conditional update rejected")
	ErrConfiguration  = errors.New("configuration error")
)
