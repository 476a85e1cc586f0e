package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bkrobot/auth-service/internal/core/domain"
	"github.com/bkrobot/auth-service/internal/core/ports"
)

// secretBytes is the entropy of a raw refresh secret: 48 bytes = 384 bits.
const secretBytes = 48

// HashRefreshSecret computes the digest under which a refresh secret is
// stored. Plain sha256 is enough here: the input is itself high-entropy and
// secret, and the digest must be deterministic so it can be looked up by
// equality.
func HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RefreshVault implements ports.RefreshTokenVault over a
// RefreshTokenRepository.
type RefreshVault struct {
	repo ports.RefreshTokenRepository
	ttl  time.Duration
}

func NewRefreshVault(repo ports.RefreshTokenRepository, ttl time.Duration) *RefreshVault {
	if ttl <= 0 {
		ttl = 15 * 24 * time.Hour
	}
	return &RefreshVault{repo: repo, ttl: ttl}
}

// Issue generates a fresh opaque secret, stores its digest, and returns the
// raw secret. The raw value never touches the store.
func (v *RefreshVault) Issue(ctx context.Context, userID int64, now time.Time) (string, *domain.RefreshToken, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate refresh secret: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	record, err := v.repo.Insert(ctx, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: HashRefreshSecret(raw),
		ExpiresAt: now.Add(v.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", nil, err
	}
	return raw, record, nil
}

// Rotate consumes the presented secret and issues a replacement. The revoke
// step is a compare-and-swap on revoked_at: when two callers race on the
// same secret, the store lets exactly one of them flip the flag, and the
// replacement is only ever inserted after that flip succeeded. A loser — or
// a caller arriving after the winner committed — gets ErrTokenRevoked.
func (v *RefreshVault) Rotate(ctx context.Context, userID int64, rawSecret string, now time.Time) (string, *domain.RefreshToken, error) {
	record, err := v.repo.FindByHash(ctx, userID, HashRefreshSecret(rawSecret))
	if err != nil {
		return "", nil, err
	}
	if record.RevokedAt != nil {
		return "", nil, domain.ErrTokenRevoked
	}
	if !record.ExpiresAt.After(now) {
		return "", nil, domain.ErrTokenExpired
	}

	revoked, err := v.repo.MarkRevoked(ctx, record.ID, now)
	if err != nil {
		return "", nil, err
	}
	if !revoked {
		return "", nil, domain.ErrTokenRevoked
	}

	return v.Issue(ctx, userID, now)
}

// RevokeAll invalidates every live refresh token of the user. Calling it
// again is a no-op.
func (v *RefreshVault) RevokeAll(ctx context.Context, userID int64, now time.Time) error {
	_, err := v.repo.RevokeAll(ctx, userID, now)
	return err
}
