package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
)

type VerificationRepository struct {
	col *mongo.Collection
}

func NewVerificationRepository(db *mongo.Database) repository.VerificationRepository {
	return &VerificationRepository{col: db.Collection(verificationsCollection)}
}

func (r *VerificationRepository) Init(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create verification indexes: %w", err)
	}
	return nil
}

func (r *VerificationRepository) Upsert(ctx context.Context, v *domain.Verification) error {
	oid, err := objectID(v.UserID)
	if err != nil {
		return err
	}
	v.CreatedAt = time.Now().UTC()

	_, err = r.col.ReplaceOne(ctx,
		bson.M{"userId": oid},
		verificationDocument{
			UserID:             oid,
			HashedUniqueString: v.HashedUniqueString,
			ExpiresAt:          v.ExpiresAt.UTC(),
			CreatedAt:          v.CreatedAt,
		},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetByUser(ctx context.Context, userID string) (*domain.Verification, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	var doc verificationDocument
	if err := r.col.FindOne(ctx, bson.M{"userId": oid}).Decode(&doc); err != nil {
		return nil, notFound(err, "verification")
	}
	return doc.toDomain(), nil
}

func (r *VerificationRepository) DeleteByUser(ctx context.Context, userID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	if _, err := r.col.DeleteOne(ctx, bson.M{"userId": oid}); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	return res.DeletedCount, nil
}
