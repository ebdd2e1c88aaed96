// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication of a bearer credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingToken indicates a webhook call without a signed token.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken indicates a signed token that does not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRevoked indicates the instance exists but no longer accepts events.
	ErrRevoked = errors.New("instance revoked")

	// ErrRateLimited indicates a temporary lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidInput indicates a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
