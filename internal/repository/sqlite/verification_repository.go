package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
)

// expires_at is kept as unix nanoseconds so the sweep can compare it numerically.
const createVerificationsTable = `
CREATE TABLE IF NOT EXISTS verifications (
	user_id TEXT PRIMARY KEY,
	hashed_unique_string TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_verifications_expires_at ON verifications(expires_at);
`

type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) repository.VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVerificationsTable); err != nil {
		return fmt.Errorf("create verifications table: %w", err)
	}
	return nil
}

func (r *VerificationRepository) Upsert(ctx context.Context, v *domain.Verification) error {
	v.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO verifications (user_id, hashed_unique_string, expires_at, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	hashed_unique_string = excluded.hashed_unique_string,
	expires_at = excluded.expires_at,
	created_at = excluded.created_at`,
		v.UserID,
		v.HashedUniqueString,
		v.ExpiresAt.UnixNano(),
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetByUser(ctx context.Context, userID string) (*domain.Verification, error) {
	var (
		v         domain.Verification
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, hashed_unique_string, expires_at, created_at
FROM verifications
WHERE user_id = ?`,
		userID,
	).Scan(&v.UserID, &v.HashedUniqueString, &expiresAt, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err, "verification")
	}
	v.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return &v, nil
}

func (r *VerificationRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE expires_at < ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired verifications rows affected: %w", err)
	}
	return n, nil
}
