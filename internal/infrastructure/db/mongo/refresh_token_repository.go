package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

const refreshTokenCollection = "auth_refresh_tokens"

// RefreshTokenRepository implements ports.RefreshTokenRepository. One
// document per issued token; documents are only ever mutated by setting
// revoked_at, never deleted.
type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(refreshTokenCollection)}
}

type refreshTokenDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    int64              `bson:"user_id"`
	TokenHash string             `bson:"token_hash"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
	RevokedAt *time.Time         `bson:"revoked_at,omitempty"`
}

func (d *refreshTokenDoc) toDomain() *domain.RefreshToken {
	token := &domain.RefreshToken{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		TokenHash: d.TokenHash,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
	if d.RevokedAt != nil {
		at := *d.RevokedAt
		token.RevokedAt = &at
	}
	return token
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, token *domain.RefreshToken) (*domain.RefreshToken, error) {
	doc := refreshTokenDoc{
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, storeFailure("insert refresh token", err)
	}

	stored := *token
	stored.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &stored, nil
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, userID int64, tokenHash string) (*domain.RefreshToken, error) {
	var doc refreshTokenDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "token_hash": tokenHash}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, storeFailure("find refresh token", err)
	}
	return doc.toDomain(), nil
}

// MarkRevoked is the rotation's atomic core: the filter only matches while
// revoked_at is still unset, so of any number of concurrent callers the
// store lets exactly one modify the document. Everyone else sees
// ModifiedCount == 0 and reports false.
func (r *RefreshTokenRepository) MarkRevoked(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrTokenNotFound
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "revoked_at": nil},
		bson.M{"$set": bson.M{"revoked_at": at}},
	)
	if err != nil {
		return false, storeFailure("revoke refresh token", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *RefreshTokenRepository) RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked_at": nil, "expires_at": bson.M{"$gt": at}},
		bson.M{"$set": bson.M{"revoked_at": at}},
	)
	if err != nil {
		return 0, storeFailure("revoke all refresh tokens", err)
	}
	return res.ModifiedCount, nil
}
