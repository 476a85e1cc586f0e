package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  []*domain.User
	hashes map[int64]string
	scopes map[int64][]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		hashes: make(map[int64]string),
		scopes: make(map[int64][]string),
	}
}

func (r *stubUserRepo) add(user *domain.User, passwordHash string, scopes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	r.hashes[user.ID] = passwordHash
	r.scopes[user.ID] = scopes
}

func (r *stubUserRepo) setScopes(userID int64, scopes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes[userID] = scopes
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == identifier || u.Username == identifier {
			clone := *u
			return &clone, r.hashes[u.ID], nil
		}
	}
	return nil, "", domain.ErrUserNotFound
}

func (r *stubUserRepo) ScopesForUser(_ context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.scopes[userID]...), nil
}

type stubDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{revoked: make(map[string]time.Duration)}
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = ttl
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	tokens   *memTokenRepo
	codec    *JWTCodec
	denylist *stubDenylist
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newStubUserRepo()
	tokens := newMemTokenRepo()
	codec := testCodec()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	vault := NewRefreshVault(tokens, 15*24*time.Hour)
	resolver := NewStoreScopeResolver(users)
	denylist := newStubDenylist()

	svc, err := NewAuthService(users, hasher, codec, vault, resolver, denylist, 30*time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}
	return &authFixture{svc: svc, users: users, tokens: tokens, codec: codec, denylist: denylist}
}

func (f *authFixture) addUser(t *testing.T, id int64, username, email, password string, active bool, scopes ...string) {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.users.add(&domain.User{ID: id, Username: username, Email: email, IsActive: active}, string(digest), scopes...)
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true, "campaigns:write")
	now := time.Now().UTC()

	pair, err := f.svc.Login(context.Background(), "alice@x.com", "p@ss", now)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Fatalf("unexpected token type: %s", pair.TokenType)
	}
	if pair.RefreshToken == "" {
		t.Fatalf("expected a refresh secret")
	}

	claims, err := f.codec.Verify(pair.AccessToken, now)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.Subject != "alice@x.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != "campaigns:write" {
		t.Fatalf("unexpected scopes: %v", claims.Scopes)
	}
}

func TestAuthService_Login_ByUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true)

	if _, err := f.svc.Login(context.Background(), "alice", "p@ss", time.Now().UTC()); err != nil {
		t.Fatalf("Login by username returned error: %v", err)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true)
	f.addUser(t, 2, "mallory", "mallory@x.com", "p@ss", false)
	now := time.Now().UTC()

	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"wrong password", "alice@x.com", "wrong"},
		{"unknown user", "ghost@x.com", "p@ss"},
		{"inactive account", "mallory@x.com", "p@ss"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Login(context.Background(), tc.identifier, tc.password, now); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	// No refresh-token record may be created by a failed login.
	if live := f.tokens.liveCount(1, now); live != 0 {
		t.Fatalf("failed login created %d refresh tokens", live)
	}
	if live := f.tokens.liveCount(2, now); live != 0 {
		t.Fatalf("inactive login created %d refresh tokens", live)
	}
}

func TestAuthService_Login_ScopeFreshness(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true, "campaigns:read")
	now := time.Now().UTC()

	first, err := f.svc.Login(context.Background(), "alice@x.com", "p@ss", now)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	// Grant a new role's scope between logins.
	f.users.setScopes(1, "campaigns:read", "campaigns:write")

	second, err := f.svc.Login(context.Background(), "alice@x.com", "p@ss", now)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	firstClaims, err := f.codec.Verify(first.AccessToken, now)
	if err != nil {
		t.Fatalf("verify first: %v", err)
	}
	secondClaims, err := f.codec.Verify(second.AccessToken, now)
	if err != nil {
		t.Fatalf("verify second: %v", err)
	}
	if len(firstClaims.Scopes) != 1 {
		t.Fatalf("first token must keep its issuance-time scopes, got %v", firstClaims.Scopes)
	}
	if len(secondClaims.Scopes) != 2 {
		t.Fatalf("second token must carry the new scope set, got %v", secondClaims.Scopes)
	}
}

func TestAuthService_Refresh_RotatesAndReresolves(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true, "campaigns:read")
	now := time.Now().UTC()

	pair, err := f.svc.Login(context.Background(), "alice@x.com", "p@ss", now)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Permissions change while the refresh token is outstanding.
	f.users.setScopes(1, "campaigns:read", "campaigns:write")

	later := now.Add(time.Hour)
	refreshed, err := f.svc.Refresh(context.Background(), "alice@x.com", pair.RefreshToken, later)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if refreshed.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh must mint a new secret")
	}

	claims, err := f.codec.Verify(refreshed.AccessToken, later)
	if err != nil {
		t.Fatalf("verify refreshed access token: %v", err)
	}
	if len(claims.Scopes) != 2 {
		t.Fatalf("refreshed token must carry current scopes, got %v", claims.Scopes)
	}

	// The consumed secret is permanently dead.
	if _, err := f.svc.Refresh(context.Background(), "alice@x.com", pair.RefreshToken, later); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on replay, got %v", err)
	}
}

func TestAuthService_Refresh_Failures(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true)
	f.addUser(t, 2, "mallory", "mallory@x.com", "p@ss", false)
	now := time.Now().UTC()

	if _, err := f.svc.Refresh(context.Background(), "ghost@x.com", "whatever", now); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), "mallory@x.com", "whatever", now); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deactivated user, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), "alice@x.com", "never-issued", now); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestAuthService_Logout_RevokesEverything(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, 1, "alice", "alice@x.com", "p@ss", true)
	now := time.Now().UTC()

	pair, err := f.svc.Login(context.Background(), "alice@x.com", "p@ss", now)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.codec.Verify(pair.AccessToken, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if err := f.svc.Logout(context.Background(), "alice@x.com", claims.TokenID, now.Add(time.Minute)); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if revoked, _ := f.denylist.IsRevoked(context.Background(), claims.TokenID); !revoked {
		t.Fatalf("access token jti must be denylisted")
	}
	if _, err := f.svc.Refresh(context.Background(), "alice@x.com", pair.RefreshToken, now.Add(2*time.Minute)); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestStoreScopeResolver_DedupesAndSorts(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: 1, Username: "alice", IsActive: true}, "",
		"campaigns:write", "campaigns:read", "campaigns:write")
	resolver := NewStoreScopeResolver(users)

	scopes, err := resolver.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(scopes) != 2 || scopes[0] != "campaigns:read" || scopes[1] != "campaigns:write" {
		t.Fatalf("unexpected scopes: %v", scopes)
	}
}

func TestStoreScopeResolver_EmptyForRolelessUser(t *testing.T) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: 1, Username: "alice", IsActive: true}, "")
	resolver := NewStoreScopeResolver(users)

	scopes, err := resolver.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(scopes) != 0 {
		t.Fatalf("expected empty scope set, got %v", scopes)
	}
}
