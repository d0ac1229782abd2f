package events

import (
	"context"
	"time"
)

const (
	SubjectBountyCreated     = "bounty.created"
	SubjectBountyCompleted   = "bounty.completed"
	SubjectSubmissionCreated = "bounty.submission.created"
)

// Publisher fans bounty lifecycle events out to other services.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// BountyEvent is the payload of bounty.created and bounty.completed.
type BountyEvent struct {
	BountyID   string    `json:"bounty_id"`
	Title      string    `json:"title"`
	Reward     float64   `json:"reward"`
	Status     string    `json:"status"`
	CreatedBy  string    `json:"created_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SubmissionEvent is the payload of bounty.submission.created.
type SubmissionEvent struct {
	SubmissionID string    `json:"submission_id"`
	BountyID     string    `json:"bounty_id"`
	UserIDs      []string  `json:"user_ids"`
	Wallet       string    `json:"wallet"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

var _ Publisher = Nop{}
