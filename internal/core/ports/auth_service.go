package ports

import (
	"context"
	"time"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// ScopeResolver derives the effective permission set of a user at a point in
// time. No caching: a role or scope change is reflected on the very next
// token issuance, never retroactively on tokens already signed.
type ScopeResolver interface {
	Resolve(ctx context.Context, userID int64) ([]string, error)
}

// RefreshTokenVault generates, validates, and atomically rotates opaque
// refresh credentials. The raw secret returned by Issue and Rotate is handed
// out exactly once and is never recoverable from storage.
type RefreshTokenVault interface {
	Issue(ctx context.Context, userID int64, now time.Time) (string, *domain.RefreshToken, error)

	// Rotate exchanges a still-valid secret for a fresh one, permanently
	// consuming the presented secret. Fails with domain.ErrTokenNotFound,
	// domain.ErrTokenRevoked, or domain.ErrTokenExpired. Of N concurrent
	// calls with the same secret, at most one succeeds.
	Rotate(ctx context.Context, userID int64, rawSecret string, now time.Time) (string, *domain.RefreshToken, error)

	// RevokeAll invalidates every live refresh token of the user
	// (logout-everywhere / compromise response). Idempotent.
	RevokeAll(ctx context.Context, userID int64, now time.Time) error
}

// AuthService orchestrates the login and refresh flows.
type AuthService interface {
	// Login validates credentials and returns a fresh token pair. Unknown
	// identifier, wrong password, and inactive account all collapse into
	// domain.ErrInvalidCredentials.
	Login(ctx context.Context, identifier, password string, now time.Time) (*domain.TokenPair, error)

	// Refresh rotates the presented refresh secret and issues a new pair
	// bound to the user's current scopes, not the ones embedded in any
	// earlier token.
	Refresh(ctx context.Context, identifier, rawRefresh string, now time.Time) (*domain.TokenPair, error)

	// Logout revokes every refresh token of the user and denylists the
	// presenting access token for the rest of its lifetime.
	Logout(ctx context.Context, identifier, accessTokenID string, now time.Time) error
}
