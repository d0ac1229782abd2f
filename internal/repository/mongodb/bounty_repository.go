package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
)

type BountyRepository struct {
	col *mongo.Collection
}

func NewBountyRepository(db *mongo.Database) repository.BountyRepository {
	return &BountyRepository{col: db.Collection(bountiesCollection)}
}

func (r *BountyRepository) Init(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "reward", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create bounty indexes: %w", err)
	}
	return nil
}

func (r *BountyRepository) Create(ctx context.Context, bounty *domain.Bounty) error {
	now := time.Now().UTC()
	if bounty.ID == "" {
		bounty.ID = domain.NewID()
	}
	oid, err := objectID(bounty.ID)
	if err != nil {
		return err
	}
	creator, err := objectID(bounty.CreatedBy)
	if err != nil {
		return err
	}
	bounty.CreatedAt = now
	bounty.UpdatedAt = now
	if bounty.Submissions == nil {
		bounty.Submissions = []string{}
	}

	_, err = r.col.InsertOne(ctx, bountyDocument{
		ID:           oid,
		Title:        bounty.Title,
		Description:  bounty.Description,
		Reward:       bounty.Reward,
		StartDate:    bounty.StartDate.UTC(),
		EndDate:      bounty.EndDate.UTC(),
		Status:       string(bounty.Status),
		CreatedBy:    creator,
		About:        bounty.About,
		Eligibility:  bounty.Eligibility,
		Requirements: bounty.Requirements,
		Procedure:    bounty.Procedure,
		Submissions:  []primitive.ObjectID{},
		CreatedAt:    bounty.CreatedAt,
		UpdatedAt:    bounty.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert bounty: %w", err)
	}
	return nil
}

func (r *BountyRepository) Get(ctx context.Context, id string) (*domain.Bounty, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findBounty(ctx, r.col, oid)
}

func (r *BountyRepository) Update(ctx context.Context, id string, patch domain.BountyPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": patchDocument(patch, time.Now().UTC())})
	if err != nil {
		return fmt.Errorf("update bounty: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bounty: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *BountyRepository) UpdateStatus(ctx context.Context, id string, status domain.BountyStatus) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update bounty status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bounty: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *BountyRepository) List(ctx context.Context, filter domain.BountyFilter) ([]domain.Bounty, error) {
	query, err := bountyQuery(filter)
	if err != nil {
		return nil, err
	}

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query bounties: %w", err)
	}
	defer cur.Close(ctx)

	var bounties []domain.Bounty
	for cur.Next(ctx) {
		var doc bountyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode bounty: %w", err)
		}
		bounties = append(bounties, *doc.toDomain())
	}
	return bounties, cur.Err()
}

// bountyQuery translates a filter into a MongoDB query document.
func bountyQuery(filter domain.BountyFilter) (bson.M, error) {
	query := bson.M{}
	if filter.Title != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Title), Options: "i"}
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.CreatedBy != "" {
		oid, err := objectID(filter.CreatedBy)
		if err != nil {
			return nil, err
		}
		query["createdBy"] = oid
	}
	if filter.MinReward != nil {
		query["reward"] = bson.M{"$gte": *filter.MinReward}
	}
	return query, nil
}

func patchDocument(patch domain.BountyPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Reward != nil {
		set["reward"] = *patch.Reward
	}
	if patch.StartDate != nil {
		set["startDate"] = patch.StartDate.UTC()
	}
	if patch.EndDate != nil {
		set["endDate"] = patch.EndDate.UTC()
	}
	if patch.About != nil {
		set["about"] = *patch.About
	}
	if patch.Eligibility != nil {
		set["eligibility"] = *patch.Eligibility
	}
	if patch.Requirements != nil {
		set["requirements"] = *patch.Requirements
	}
	if patch.Procedure != nil {
		set["procedure"] = *patch.Procedure
	}
	return set
}

func findBounty(ctx context.Context, col *mongo.Collection, oid primitive.ObjectID) (*domain.Bounty, error) {
	var doc bountyDocument
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err, "bounty")
	}
	return doc.toDomain(), nil
}
