package ports

import (
	"time"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// PasswordHasher is the capability interface for slow, salted password
// hashing, kept separate so the algorithm is swappable and testable with
// fixed inputs.
type PasswordHasher interface {
	// Hash produces a salted one-way digest; the same input yields a
	// different digest on every call.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches digest. Never panics or errors
	// on a malformed digest — it just returns false.
	Verify(plain, digest string) bool
}

// TokenCodec issues and verifies self-contained signed access tokens.
// Verify is a pure function of the token, the signing secret, and now:
// it performs no I/O and holds no state about issued tokens.
type TokenCodec interface {
	Issue(subject string, scopes []string, now time.Time) (string, error)

	// Verify returns the embedded claims, or one of
	// domain.ErrSignatureInvalid, domain.ErrTokenExpired,
	// domain.ErrIssuerMismatch, domain.ErrAudienceMismatch.
	// Expiry is checked even when the signature is valid.
	Verify(token string, now time.Time) (*domain.AccessClaims, error)
}
