package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

const (
	usersCollection      = "auth_users"
	rolesCollection      = "auth_roles"
	scopesCollection     = "auth_scopes"
	userRolesCollection  = "auth_user_roles"
	roleScopesCollection = "auth_role_scopes"
)

// UserRepository implements ports.UserRepository against MongoDB. Role and
// scope membership are explicit join documents; the effective permission set
// is computed by traversing them per call.
type UserRepository struct {
	users      *mongo.Collection
	scopes     *mongo.Collection
	userRoles  *mongo.Collection
	roleScopes *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:      db.Collection(usersCollection),
		scopes:     db.Collection(scopesCollection),
		userRoles:  db.Collection(userRolesCollection),
		roleScopes: db.Collection(roleScopesCollection),
	}
}

type userDoc struct {
	UserID             int64     `bson:"user_id"`
	Username           string    `bson:"username"`
	Email              string    `bson:"email,omitempty"`
	PasswordHash       string    `bson:"password_hash"`
	IsActive           bool      `bson:"is_active"`
	MustChangePassword bool      `bson:"must_change_password"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

type userRoleDoc struct {
	UserID int64 `bson:"user_id"`
	RoleID int64 `bson:"role_id"`
}

type roleScopeDoc struct {
	RoleID  int64 `bson:"role_id"`
	ScopeID int64 `bson:"scope_id"`
}

type scopeDoc struct {
	ScopeID int64  `bson:"scope_id"`
	Name    string `bson:"name"`
}

// FindByIdentifier looks the user up by email (normalized to lowercase) or
// username and returns the user with the stored password hash.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, string, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(identifier)},
		bson.M{"username": identifier},
	}}

	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", storeFailure("find user", err)
	}

	return &domain.User{
		ID:                 doc.UserID,
		Username:           doc.Username,
		Email:              doc.Email,
		IsActive:           doc.IsActive,
		MustChangePassword: doc.MustChangePassword,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}, doc.PasswordHash, nil
}

// ScopesForUser walks user → roles → scopes and returns the granted scope
// names. A user with no role memberships yields an empty slice.
func (r *UserRepository) ScopesForUser(ctx context.Context, userID int64) ([]string, error) {
	roleIDs, err := r.roleIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return []string{}, nil
	}

	scopeIDs, err := r.scopeIDsFor(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	if len(scopeIDs) == 0 {
		return []string{}, nil
	}

	cursor, err := r.scopes.Find(ctx, bson.M{"scope_id": bson.M{"$in": scopeIDs}})
	if err != nil {
		return nil, storeFailure("find scopes", err)
	}
	defer cursor.Close(ctx)

	names := make([]string, 0, len(scopeIDs))
	for cursor.Next(ctx) {
		var doc scopeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeFailure("decode scope", err)
		}
		names = append(names, doc.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeFailure("iterate scopes", err)
	}
	return names, nil
}

func (r *UserRepository) roleIDsFor(ctx context.Context, userID int64) ([]int64, error) {
	cursor, err := r.userRoles.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, storeFailure("find user roles", err)
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var doc userRoleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeFailure("decode user role", err)
		}
		ids = append(ids, doc.RoleID)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeFailure("iterate user roles", err)
	}
	return ids, nil
}

func (r *UserRepository) scopeIDsFor(ctx context.Context, roleIDs []int64) ([]int64, error) {
	cursor, err := r.roleScopes.Find(ctx, bson.M{"role_id": bson.M{"$in": roleIDs}})
	if err != nil {
		return nil, storeFailure("find role scopes", err)
	}
	defer cursor.Close(ctx)

	seen := make(map[int64]struct{})
	var ids []int64
	for cursor.Next(ctx) {
		var doc roleScopeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeFailure("decode role scope", err)
		}
		if _, dup := seen[doc.ScopeID]; dup {
			continue
		}
		seen[doc.ScopeID] = struct{}{}
		ids = append(ids, doc.ScopeID)
	}
	if err := cursor.Err(); err != nil {
		return nil, storeFailure("iterate role scopes", err)
	}
	return ids, nil
}

// storeFailure tags an infrastructure error so the API boundary can map it to
// a 500 while keeping the cause available for logging.
func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}
