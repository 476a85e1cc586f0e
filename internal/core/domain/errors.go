package domain

import "errors"

// Authentication failures. All of these surface to HTTP callers as a uniform
// 401 so responses never reveal whether an account exists or why a token was
// rejected; they stay distinct internally for logging and audit.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenNotFound      = errors.New("token not found")
	ErrSignatureInvalid   = errors.New("token signature invalid")
	ErrIssuerMismatch     = errors.New("token issuer mismatch")
	ErrAudienceMismatch   = errors.New("token audience mismatch")
)

// ErrMissingScope is authorization, not authentication: the bearer is who
// they claim to be but lacks a required permission. Maps to 403.
var ErrMissingScope = errors.New("missing required scope")

// ErrStoreUnavailable marks infrastructure failure in the credential store.
// Maps to 500 and is never retried by this core.
var ErrStoreUnavailable = errors.New("credential store unavailable")
