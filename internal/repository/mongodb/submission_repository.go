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

// SubmissionRepository writes submissions inside a multi-document transaction,
// which requires MongoDB to run as a replica set.
type SubmissionRepository struct {
	client       *mongo.Client
	submissions  *mongo.Collection
	participants *mongo.Collection
	bounties     *mongo.Collection
}

func NewSubmissionRepository(client *mongo.Client, db *mongo.Database) repository.SubmissionRepository {
	return &SubmissionRepository{
		client:       client,
		submissions:  db.Collection(submissionsCollection),
		participants: db.Collection(participantsCollection),
		bounties:     db.Collection(bountiesCollection),
	}
}

func (r *SubmissionRepository) Init(ctx context.Context) error {
	if _, err := r.submissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bounty", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create submission index: %w", err)
	}
	if _, err := r.participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bounty", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create participant index: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) CreateForBounty(ctx context.Context, sub *domain.Submission, guard repository.SubmissionGuard) error {
	bountyID, err := objectID(sub.BountyID)
	if err != nil {
		return err
	}
	users, err := objectIDs(sub.UserIDs)
	if err != nil {
		return err
	}
	if sub.ID == "" {
		sub.ID = domain.NewID()
	}
	subID, err := objectID(sub.ID)
	if err != nil {
		return err
	}
	sub.CreatedAt = time.Now().UTC()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		bounty, err := findBounty(sc, r.bounties, bountyID)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			if err := guard(bounty); err != nil {
				return nil, err
			}
		}

		taken, err := r.participants.CountDocuments(sc, bson.M{
			"bounty": bountyID,
			"user":   bson.M{"$in": users},
		})
		if err != nil {
			return nil, fmt.Errorf("check participants: %w", err)
		}
		if taken > 0 {
			return nil, domain.ErrDuplicateSubmitter
		}

		if _, err := r.submissions.InsertOne(sc, submissionDocument{
			ID:        subID,
			Bounty:    bountyID,
			Users:     users,
			Solution:  sub.Solution,
			Wallet:    sub.Wallet,
			CreatedAt: sub.CreatedAt,
		}); err != nil {
			return nil, fmt.Errorf("insert submission: %w", err)
		}

		docs := make([]interface{}, len(users))
		for i, user := range users {
			docs[i] = participantDocument{Bounty: bountyID, User: user, Submission: subID}
		}
		if len(docs) > 0 {
			if _, err := r.participants.InsertMany(sc, docs); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, domain.ErrDuplicateSubmitter
				}
				return nil, fmt.Errorf("insert participants: %w", err)
			}
		}

		set := bson.M{"updatedAt": sub.CreatedAt}
		if bounty.Status == domain.BountyStatusOpen {
			set["status"] = string(domain.BountyStatusInProgress)
		}
		if _, err := r.bounties.UpdateOne(sc,
			bson.M{"_id": bountyID},
			bson.M{"$push": bson.M{"submissions": subID}, "$set": set},
		); err != nil {
			return nil, fmt.Errorf("append submission: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc submissionDocument
	if err := r.submissions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err, "submission")
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) ListByBounty(ctx context.Context, bountyID string) ([]domain.Submission, error) {
	oid, err := objectID(bountyID)
	if err != nil {
		return nil, err
	}
	cur, err := r.submissions.Find(ctx, bson.M{"bounty": oid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer cur.Close(ctx)

	var subs []domain.Submission
	for cur.Next(ctx) {
		var doc submissionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		subs = append(subs, *doc.toDomain())
	}
	return subs, cur.Err()
}

func (r *SubmissionRepository) SetArchiveKey(ctx context.Context, id, key string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.submissions.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"archiveKey": key}})
	if err != nil {
		return fmt.Errorf("set archive key: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("submission: %w", domain.ErrNotFound)
	}
	return nil
}
