package domain

import "time"

// TokenType is the scheme reported alongside every issued token pair.
const TokenType = "bearer"

// RefreshToken is one outstanding (or historical) rotation link. Only the
// sha256 digest of the opaque secret is ever stored; the raw value is handed
// to the caller exactly once at issuance. Records are never deleted — a
// revoked row is the audit trail that makes replay detectable.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Usable reports whether the token may still be exchanged: not revoked and
// not past its expiry.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

// TokenPair is the credential set returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AccessClaims is the verified content of an access token: who it was issued
// to, what it permits, and the token's own identity (jti) used by the
// revocation denylist.
type AccessClaims struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes"`
	TokenID string   `json:"jti"`
}
