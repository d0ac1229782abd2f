package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
)

const createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	bounty_id TEXT NOT NULL,
	solution TEXT NOT NULL,
	wallet TEXT NOT NULL,
	archive_key TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY(bounty_id) REFERENCES bounties(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_submissions_bounty_id ON submissions(bounty_id);
CREATE TABLE IF NOT EXISTS bounty_participants (
	bounty_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	submission_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (bounty_id, user_id),
	FOREIGN KEY(submission_id) REFERENCES submissions(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_bounty_participants_submission ON bounty_participants(submission_id);
`

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) repository.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubmissionsTable); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) CreateForBounty(ctx context.Context, sub *domain.Submission, guard repository.SubmissionGuard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	bounty, err := getBounty(ctx, tx, sub.BountyID)
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(bounty); err != nil {
			return err
		}
	}

	if len(sub.UserIDs) > 0 {
		var taken int
		args := append([]any{sub.BountyID}, stringArgs(sub.UserIDs)...)
		if err := tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM bounty_participants
WHERE bounty_id=? AND user_id IN (`+placeholders(len(sub.UserIDs))+`)`,
			args...,
		).Scan(&taken); err != nil {
			return fmt.Errorf("check participants: %w", err)
		}
		if taken > 0 {
			return domain.ErrDuplicateSubmitter
		}
	}

	now := time.Now().UTC()
	if sub.ID == "" {
		sub.ID = domain.NewID()
	}
	sub.CreatedAt = now

	if _, err := tx.ExecContext(ctx, `
INSERT INTO submissions (id, bounty_id, solution, wallet, archive_key, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.BountyID,
		sub.Solution,
		sub.Wallet,
		sub.ArchiveKey,
		sub.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	for i, userID := range sub.UserIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO bounty_participants (bounty_id, user_id, submission_id, position)
VALUES (?, ?, ?, ?)`,
			sub.BountyID,
			userID,
			sub.ID,
			i,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateSubmitter
			}
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if bounty.Status == domain.BountyStatusOpen {
		if _, err := tx.ExecContext(ctx, `
UPDATE bounties SET status=?, updated_at=? WHERE id=?`,
			string(domain.BountyStatusInProgress),
			now,
			bounty.ID,
		); err != nil {
			return fmt.Errorf("advance bounty status: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE bounties SET updated_at=? WHERE id=?`, now, bounty.ID); err != nil {
			return fmt.Errorf("touch bounty: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	var sub domain.Submission
	if err := r.db.QueryRowContext(ctx, `
SELECT id, bounty_id, solution, wallet, archive_key, created_at
FROM submissions
WHERE id=?`,
		id,
	).Scan(&sub.ID, &sub.BountyID, &sub.Solution, &sub.Wallet, &sub.ArchiveKey, &sub.CreatedAt); err != nil {
		return nil, notFound(err, "submission")
	}

	users, err := r.participants(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.UserIDs = users
	return &sub, nil
}

func (r *SubmissionRepository) ListByBounty(ctx context.Context, bountyID string) ([]domain.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, bounty_id, solution, wallet, archive_key, created_at
FROM submissions
WHERE bounty_id=?
ORDER BY rowid ASC`, bountyID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.BountyID, &sub.Solution, &sub.Wallet, &sub.ArchiveKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range subs {
		users, err := r.participants(ctx, subs[i].ID)
		if err != nil {
			return nil, err
		}
		subs[i].UserIDs = users
	}
	return subs, nil
}

func (r *SubmissionRepository) SetArchiveKey(ctx context.Context, id, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET archive_key=? WHERE id=?`, key, id)
	if err != nil {
		return fmt.Errorf("set archive key: %w", err)
	}
	return requireAffected(res, "submission")
}

func (r *SubmissionRepository) participants(ctx context.Context, submissionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id FROM bounty_participants
WHERE submission_id=?
ORDER BY position ASC`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
