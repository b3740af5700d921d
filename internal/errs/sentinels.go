// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., identity taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed input. Field detail lives in *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials indicates an unknown identity or a wrong password.
	// The two cases are intentionally indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a token with a bad signature, expiry, kind or shape.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRevoked indicates a refresh token whose identifier was revoked.
	ErrRevoked = errors.New("token revoked")

	// ErrUnauthenticated indicates a failed guard on a protected operation.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// Stable machine-readable error kinds surfaced to callers.
const (
	KindValidation         = "VALIDATION"
	KindAlreadyExists      = "ALREADY_EXISTS"
	KindInvalidCredentials = "INVALID_CREDENTIALS"
	KindInvalidToken       = "INVALID_TOKEN"
	KindRevoked            = "REVOKED"
	KindUnauthenticated    = "UNAUTHENTICATED"
	KindRateLimited        = "RATE_LIMITED"
	KindInternal           = "INTERNAL"
)

// Kind maps an error to its stable kind. NotFound is reported as
// UNAUTHENTICATED: the account vanished between authorization and execution.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrRevoked):
		return KindRevoked
	case errors.Is(err, ErrInvalidToken):
		return KindInvalidToken
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNotFound):
		return KindUnauthenticated
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}
