package domain

import "time"

type BountyStatus string

const (
	BountyStatusOpen       BountyStatus = "OPEN"
	BountyStatusInProgress BountyStatus = "IN_PROGRESS"
	BountyStatusCompleted  BountyStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s BountyStatus) Valid() bool {
	switch s {
	case BountyStatusOpen, BountyStatusInProgress, BountyStatusCompleted:
		return true
	}
	return false
}

// Bounty represents a posted task with a reward and a submission window.
type Bounty struct {
	ID           string
	Title        string
	Description  string
	Reward       float64
	StartDate    time.Time
	EndDate      time.Time
	Status       BountyStatus
	CreatedBy    string
	Creator      *UserRef
	About        string
	Eligibility  string
	Requirements string
	Procedure    string
	Submissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BountyRef is the projection of a bounty embedded in a submission.
type BountyRef struct {
	ID     string
	Title  string
	Reward float64
}

// Ref projects b into a BountyRef.
func (b Bounty) Ref() BountyRef {
	return BountyRef{ID: b.ID, Title: b.Title, Reward: b.Reward}
}

// Submission is a proposed solution to a bounty by one or more users.
type Submission struct {
	ID         string
	BountyID   string
	UserIDs    []string
	Solution   string
	Wallet     string
	ArchiveKey string
	CreatedAt  time.Time

	Bounty *BountyRef
	Users  []UserRef
}

// BountyInput carries creation fields. Nil means the field was not supplied.
type BountyInput struct {
	Title        *string
	Description  *string
	Reward       *float64
	StartDate    *time.Time
	EndDate      *time.Time
	About        *string
	Eligibility  *string
	Requirements *string
	Procedure    *string
}

// BountyPatch is a partial update. Nil fields are left untouched.
type BountyPatch struct {
	Title        *string
	Description  *string
	Reward       *float64
	StartDate    *time.Time
	EndDate      *time.Time
	About        *string
	Eligibility  *string
	Requirements *string
	Procedure    *string
}

// Empty reports whether the patch changes nothing.
func (p BountyPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Reward == nil &&
		p.StartDate == nil && p.EndDate == nil && p.About == nil &&
		p.Eligibility == nil && p.Requirements == nil && p.Procedure == nil
}

// Apply copies the supplied patch fields onto b.
func (p BountyPatch) Apply(b *Bounty) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Reward != nil {
		b.Reward = *p.Reward
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.About != nil {
		b.About = *p.About
	}
	if p.Eligibility != nil {
		b.Eligibility = *p.Eligibility
	}
	if p.Requirements != nil {
		b.Requirements = *p.Requirements
	}
	if p.Procedure != nil {
		b.Procedure = *p.Procedure
	}
}

// BountyFilter narrows List results. Zero values are ignored.
type BountyFilter struct {
	Title     string
	Status    BountyStatus
	CreatedBy string
	MinReward *float64
}

// SubmissionInput is the payload of an answer submission.
type SubmissionInput struct {
	Solution string
	Wallet   string
	UserIDs  []string
}
