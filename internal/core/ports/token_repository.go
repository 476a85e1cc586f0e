package ports

import (
	"context"
	"time"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// RefreshTokenRepository persists refresh-token records. One row per issued
// token, unique on (user_id, token_hash); rows are never deleted by the core.
type RefreshTokenRepository interface {
	// Insert stores a new record and returns it with its assigned ID.
	Insert(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error)

	// FindByHash returns the record matching (userID, tokenHash) regardless
	// of its revocation or expiry state. Returns domain.ErrTokenNotFound
	// when no record matches.
	FindByHash(ctx context.Context, userID int64, tokenHash string) (*domain.RefreshToken, error)

	// MarkRevoked sets revoked_at on the record only if it is not already
	// set. Returns false when the record was already revoked — the
	// compare-and-swap that makes rotation race-safe: of any number of
	// concurrent callers, exactly one observes true.
	MarkRevoked(ctx context.Context, id string, at time.Time) (bool, error)

	// RevokeAll revokes every live record for the user and returns how many
	// were revoked. Idempotent: already-revoked rows are untouched.
	RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error)
}

// AccessTokenDenylist records access-token IDs (jti claims) revoked before
// their natural expiry. Entries only need to outlive the token itself, so
// implementations bound each entry's lifetime by the given TTL.
type AccessTokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
