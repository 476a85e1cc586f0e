package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/bkrobot/auth-service/internal/core/domain"
	"github.com/bkrobot/auth-service/internal/core/ports"
)

// AuthService orchestrates login, refresh, and logout over the capability
// ports. It owns the anti-enumeration behaviour: every credential failure
// collapses into domain.ErrInvalidCredentials before leaving this layer.
type AuthService struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	codec     ports.TokenCodec
	vault     ports.RefreshTokenVault
	scopes    ports.ScopeResolver
	denylist  ports.AccessTokenDenylist
	accessTTL time.Duration
	log       zerolog.Logger

	// dummyDigest is compared against on the unknown-user path so a login
	// probe costs one bcrypt comparison whether or not the account exists.
	dummyDigest string
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	vault ports.RefreshTokenVault,
	scopes ports.ScopeResolver,
	denylist ports.AccessTokenDenylist,
	accessTTL time.Duration,
	log zerolog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		codec:       codec,
		vault:       vault,
		scopes:      scopes,
		denylist:    denylist,
		accessTTL:   accessTTL,
		log:         log,
		dummyDigest: dummy,
	}, nil
}

// Login validates the identifier/password pair and, on success, returns a
// fresh token pair. The refresh secret inside it is retrievable exactly once.
func (s *AuthService) Login(ctx context.Context, identifier, password string, now time.Time) (*domain.TokenPair, error) {
	user, passwordHash, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn a comparison so an absent account is indistinguishable
			// from a wrong password, in shape and in timing.
			s.hasher.Verify(password, s.dummyDigest)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, passwordHash) || !user.IsActive {
		s.log.Debug().Int64("user_id", user.ID).Bool("active", user.IsActive).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user, now)
}

// Refresh re-validates the account, atomically rotates the presented refresh
// secret, and issues a new access token bound to the user's scopes as they
// are now — not as they were when the previous pair was minted.
func (s *AuthService) Refresh(ctx context.Context, identifier, rawRefresh string, now time.Time) (*domain.TokenPair, error) {
	user, err := s.activeUser(ctx, identifier)
	if err != nil {
		return nil, err
	}

	newRaw, _, err := s.vault.Rotate(ctx, user.ID, rawRefresh, now)
	if err != nil {
		return nil, err
	}

	scopes, err := s.scopes.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.codec.Issue(user.Subject(), scopes, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: newRaw,
		TokenType:    domain.TokenType,
	}, nil
}

// Logout revokes every outstanding refresh token of the user and denylists
// the presented access token for the rest of its lifetime, making the logout
// terminal rather than advisory.
func (s *AuthService) Logout(ctx context.Context, identifier, accessTokenID string, now time.Time) error {
	user, err := s.activeUser(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.vault.RevokeAll(ctx, user.ID, now); err != nil {
		return err
	}
	if accessTokenID != "" {
		if err := s.denylist.Revoke(ctx, accessTokenID, s.accessTTL); err != nil {
			return err
		}
	}
	s.log.Info().Int64("user_id", user.ID).Msg("all sessions revoked")
	return nil
}

func (s *AuthService) activeUser(ctx context.Context, identifier string) (*domain.User, error) {
	user, _, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		// Account may have been deactivated after the refresh token was
		// issued; the token alone must not keep it alive.
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User, now time.Time) (*domain.TokenPair, error) {
	scopes, err := s.scopes.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	access, err := s.codec.Issue(user.Subject(), scopes, now)
	if err != nil {
		return nil, err
	}

	rawRefresh, _, err := s.vault.Issue(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		TokenType:    domain.TokenType,
	}, nil
}
