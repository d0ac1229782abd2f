package repository

import (
	"context"
	"time"

	"bounty-board/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string) error
	// Refs resolves the given ids to public projections. Unknown ids are omitted.
	Refs(ctx context.Context, ids []string) (map[string]domain.UserRef, error)
}

// VerificationRepository stores at most one verification per user.
type VerificationRepository interface {
	Init(ctx context.Context) error
	// Upsert replaces any existing record for v.UserID in a single write.
	Upsert(ctx context.Context, v *domain.Verification) error
	GetByUser(ctx context.Context, userID string) (*domain.Verification, error)
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BountyRepository exposes persistence operations for Bounty aggregates.
type BountyRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, bounty *domain.Bounty) error
	Get(ctx context.Context, id string) (*domain.Bounty, error)
	Update(ctx context.Context, id string, patch domain.BountyPatch) error
	UpdateStatus(ctx context.Context, id string, status domain.BountyStatus) error
	List(ctx context.Context, filter domain.BountyFilter) ([]domain.Bounty, error)
}

// SubmissionGuard inspects the locked bounty before a submission is written.
// Returning an error aborts the write.
type SubmissionGuard func(bounty *domain.Bounty) error

// SubmissionRepository manages answers submitted to bounties.
type SubmissionRepository interface {
	Init(ctx context.Context) error
	// CreateForBounty runs guard, rejects users that already submitted to the
	// bounty with domain.ErrDuplicateSubmitter, stores the submission, appends it
	// to the bounty and advances an OPEN bounty to IN_PROGRESS, all atomically.
	CreateForBounty(ctx context.Context, sub *domain.Submission, guard SubmissionGuard) error
	Get(ctx context.Context, id string) (*domain.Submission, error)
	ListByBounty(ctx context.Context, bountyID string) ([]domain.Submission, error)
	SetArchiveKey(ctx context.Context, id, key string) error
}
