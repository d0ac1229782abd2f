package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bounty-board/internal/domain"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	IsVerified   bool               `bson:"isVerified"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type verificationDocument struct {
	UserID             primitive.ObjectID `bson:"userId"`
	HashedUniqueString string             `bson:"hashedUniqueString"`
	ExpiresAt          time.Time          `bson:"expiresAt"`
	CreatedAt          time.Time          `bson:"createdAt"`
}

func (d verificationDocument) toDomain() *domain.Verification {
	return &domain.Verification{
		UserID:             d.UserID.Hex(),
		HashedUniqueString: d.HashedUniqueString,
		ExpiresAt:          d.ExpiresAt.UTC(),
		CreatedAt:          d.CreatedAt.UTC(),
	}
}

type bountyDocument struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Reward       float64              `bson:"reward"`
	StartDate    time.Time            `bson:"startDate"`
	EndDate      time.Time            `bson:"endDate"`
	Status       string               `bson:"status"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy"`
	About        string               `bson:"about"`
	Eligibility  string               `bson:"eligibility"`
	Requirements string               `bson:"requirements"`
	Procedure    string               `bson:"procedure"`
	Submissions  []primitive.ObjectID `bson:"submissions"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func (d bountyDocument) toDomain() *domain.Bounty {
	return &domain.Bounty{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Reward:       d.Reward,
		StartDate:    d.StartDate.UTC(),
		EndDate:      d.EndDate.UTC(),
		Status:       domain.BountyStatus(d.Status),
		CreatedBy:    d.CreatedBy.Hex(),
		About:        d.About,
		Eligibility:  d.Eligibility,
		Requirements: d.Requirements,
		Procedure:    d.Procedure,
		Submissions:  hexIDs(d.Submissions),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type submissionDocument struct {
	ID         primitive.ObjectID   `bson:"_id"`
	Bounty     primitive.ObjectID   `bson:"bounty"`
	Users      []primitive.ObjectID `bson:"users"`
	Solution   string               `bson:"solution"`
	Wallet     string               `bson:"wallet"`
	ArchiveKey string               `bson:"archiveKey,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt"`
}

func (d submissionDocument) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:         d.ID.Hex(),
		BountyID:   d.Bounty.Hex(),
		UserIDs:    hexIDs(d.Users),
		Solution:   d.Solution,
		Wallet:     d.Wallet,
		ArchiveKey: d.ArchiveKey,
		CreatedAt:  d.CreatedAt,
	}
}

type participantDocument struct {
	Bounty     primitive.ObjectID `bson:"bounty"`
	User       primitive.ObjectID `bson:"user"`
	Submission primitive.ObjectID `bson:"submission"`
}
