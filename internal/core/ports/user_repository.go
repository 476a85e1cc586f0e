package ports

import (
	"context"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// UserRepository is the store-side contract for user lookup and permission
// traversal. Implementations wrap infrastructure failures in
// domain.ErrStoreUnavailable.
type UserRepository interface {
	// FindByIdentifier looks a user up by email or username and returns the
	// user together with the stored password hash. Returns
	// domain.ErrUserNotFound when no such user exists.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, string, error)

	// ScopesForUser returns the union of scope names granted through every
	// role the user currently holds. A user with no roles yields an empty
	// slice, not an error.
	ScopesForUser(ctx context.Context, userID int64) ([]string, error)
}
