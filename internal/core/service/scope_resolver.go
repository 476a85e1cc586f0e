package service

import (
	"context"
	"sort"

	"github.com/bkrobot/auth-service/internal/core/ports"
)

// StoreScopeResolver implements ports.ScopeResolver by traversing role
// membership in the credential store on every call. Freshness over
// performance: there is deliberately no cache, so a role or scope change is
// visible on the next issuance.
type StoreScopeResolver struct {
	users ports.UserRepository
}

func NewStoreScopeResolver(users ports.UserRepository) *StoreScopeResolver {
	return &StoreScopeResolver{users: users}
}

// Resolve returns the deduplicated, sorted union of scopes granted through
// the user's roles. No roles means an empty set, not an error.
func (r *StoreScopeResolver) Resolve(ctx context.Context, userID int64) ([]string, error) {
	names, err := r.users.ScopesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(names))
	scopes := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		scopes = append(scopes, name)
	}
	sort.Strings(scopes)
	return scopes, nil
}
