package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// accessClaims is the signed claim set: registered claims plus the effective
// scopes resolved at issuance time.
type accessClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// JWTCodec implements ports.TokenCodec with HS256-signed JWTs. Issuer,
// audience, secret, and TTL are fixed at construction and immutable for the
// process lifetime.
type JWTCodec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewJWTCodec(secret []byte, issuer, audience string, ttl time.Duration) *JWTCodec {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWTCodec{secret: secret, issuer: issuer, audience: audience, ttl: ttl}
}

// TTL returns the configured access-token lifetime.
func (c *JWTCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a claim set with iat = now and exp = now + ttl. Each token
// carries a fresh jti so it can be individually denylisted later.
func (c *JWTCodec) Issue(subject string, scopes []string, now time.Time) (string, error) {
	if scopes == nil {
		scopes = []string{}
	}
	claims := accessClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature, expiry, issuer, and audience, in that order.
// The library's own claim validation is disabled so the boundary is exactly
// "now >= exp fails" and each claim mismatch maps to its own error.
func (c *JWTCodec) Verify(tokenString string, now time.Time) (*domain.AccessClaims, error) {
	claims := &accessClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrSignatureInvalid
	}

	// Expiry is checked even though the signature is valid.
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	if claims.Issuer != c.issuer {
		return nil, domain.ErrIssuerMismatch
	}
	if !containsAudience(claims.Audience, c.audience) {
		return nil, domain.ErrAudienceMismatch
	}

	scopes := claims.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return &domain.AccessClaims{
		Subject: claims.Subject,
		Scopes:  scopes,
		TokenID: claims.ID,
	}, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
