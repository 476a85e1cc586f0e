package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// Denylist records access-token IDs revoked before their natural expiry.
// Key format: auth:revoked_jti:<jti>. Each entry carries a TTL no longer
// than the token's remaining lifetime, so the set prunes itself.
type Denylist struct {
	client *redis.Client
}

// NewDenylist creates a Denylist wrapping the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Revoke marks the token ID as revoked until ttl elapses. A non-positive ttl
// means the token has already expired on its own and nothing needs storing.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", errors.Join(domain.ErrStoreUnavailable, err))
	}
	return n > 0, nil
}

func (d *Denylist) key(tokenID string) string {
	return "auth:revoked_jti:" + tokenID
}
