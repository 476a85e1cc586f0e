package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the uniqueness and lookup indexes the credential
// schema depends on. Safe to call on every startup; Mongo treats an existing
// identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		refreshTokenCollection: {
			{
				// No two live tokens may share a digest for the same user.
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token_hash", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		userRolesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		roleScopesCollection: {
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
