// Package common defines shared constants and sentinel errors used across
// client and server layers of the registry. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registry errors. Each one aborts the attempted operation without
	// touching stored state.
	ErrProofInvalid    = errors.New("proof invalid")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthorized   = errors.New("not authorized")

	// ErrAccessDenied is returned by the FHE layer when an identity holds no
	// decryption grant for a handle.
	ErrAccessDenied = errors.New("access denied")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
