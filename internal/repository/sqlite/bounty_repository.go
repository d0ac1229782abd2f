package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bounty-board/internal/domain"
	"bounty-board/internal/repository"
)

const createBountiesTable = `
CREATE TABLE IF NOT EXISTS bounties (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	reward REAL NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	status TEXT NOT NULL,
	created_by TEXT NOT NULL,
	about TEXT NOT NULL,
	eligibility TEXT NOT NULL,
	requirements TEXT NOT NULL,
	procedure TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bounties_status ON bounties(status);
CREATE INDEX IF NOT EXISTS idx_bounties_created_by ON bounties(created_by);
`

const bountyColumns = `id, title, description, reward, start_date, end_date, status, created_by, about, eligibility, requirements, procedure, created_at, updated_at`

type BountyRepository struct {
	db *sql.DB
}

func NewBountyRepository(db *sql.DB) repository.BountyRepository {
	return &BountyRepository{db: db}
}

func (r *BountyRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBountiesTable); err != nil {
		return fmt.Errorf("create bounties table: %w", err)
	}
	return nil
}

func (r *BountyRepository) Create(ctx context.Context, bounty *domain.Bounty) error {
	now := time.Now().UTC()
	if bounty.ID == "" {
		bounty.ID = domain.NewID()
	}
	bounty.CreatedAt = now
	bounty.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO bounties (`+bountyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bounty.ID,
		bounty.Title,
		bounty.Description,
		bounty.Reward,
		bounty.StartDate.UTC(),
		bounty.EndDate.UTC(),
		string(bounty.Status),
		bounty.CreatedBy,
		bounty.About,
		bounty.Eligibility,
		bounty.Requirements,
		bounty.Procedure,
		bounty.CreatedAt,
		bounty.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bounty: %w", err)
	}
	return nil
}

func (r *BountyRepository) Get(ctx context.Context, id string) (*domain.Bounty, error) {
	return getBounty(ctx, r.db, id)
}

func (r *BountyRepository) Update(ctx context.Context, id string, patch domain.BountyPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+"=?")
		args = append(args, value)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Reward != nil {
		set("reward", *patch.Reward)
	}
	if patch.StartDate != nil {
		set("start_date", patch.StartDate.UTC())
	}
	if patch.EndDate != nil {
		set("end_date", patch.EndDate.UTC())
	}
	if patch.About != nil {
		set("about", *patch.About)
	}
	if patch.Eligibility != nil {
		set("eligibility", *patch.Eligibility)
	}
	if patch.Requirements != nil {
		set("requirements", *patch.Requirements)
	}
	if patch.Procedure != nil {
		set("procedure", *patch.Procedure)
	}
	set("updated_at", time.Now().UTC())
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE bounties SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("update bounty: %w", err)
	}
	return requireAffected(res, "bounty")
}

func (r *BountyRepository) UpdateStatus(ctx context.Context, id string, status domain.BountyStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE bounties
SET status=?, updated_at=?
WHERE id=?`,
		string(status),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update bounty status: %w", err)
	}
	return requireAffected(res, "bounty")
}

func (r *BountyRepository) List(ctx context.Context, filter domain.BountyFilter) ([]domain.Bounty, error) {
	var (
		where []string
		args  []any
	)
	if filter.Title != "" {
		where = append(where, `LOWER(title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Title))+"%")
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if filter.MinReward != nil {
		where = append(where, "reward >= ?")
		args = append(args, *filter.MinReward)
	}

	query := `SELECT ` + bountyColumns + ` FROM bounties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bounties: %w", err)
	}
	defer rows.Close()

	var bounties []domain.Bounty
	for rows.Next() {
		bounty, err := scanBounty(rows)
		if err != nil {
			return nil, err
		}
		bounties = append(bounties, *bounty)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range bounties {
		ids, err := submissionIDs(ctx, r.db, bounties[i].ID)
		if err != nil {
			return nil, err
		}
		bounties[i].Submissions = ids
	}
	return bounties, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBounty(ctx context.Context, q queryer, id string) (*domain.Bounty, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bountyColumns+` FROM bounties WHERE id=?`, id)
	bounty, err := scanBounty(row)
	if err != nil {
		return nil, err
	}
	ids, err := submissionIDs(ctx, q, id)
	if err != nil {
		return nil, err
	}
	bounty.Submissions = ids
	return bounty, nil
}

func submissionIDs(ctx context.Context, q queryer, bountyID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM submissions WHERE bounty_id=? ORDER BY rowid ASC`, bountyID)
	if err != nil {
		return nil, fmt.Errorf("query submission ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBounty(scanner interface {
	Scan(dest ...any) error
}) (*domain.Bounty, error) {
	var (
		bounty domain.Bounty
		status string
	)
	if err := scanner.Scan(
		&bounty.ID,
		&bounty.Title,
		&bounty.Description,
		&bounty.Reward,
		&bounty.StartDate,
		&bounty.EndDate,
		&status,
		&bounty.CreatedBy,
		&bounty.About,
		&bounty.Eligibility,
		&bounty.Requirements,
		&bounty.Procedure,
		&bounty.CreatedAt,
		&bounty.UpdatedAt,
	); err != nil {
		return nil, notFound(err, "bounty")
	}
	bounty.Status = domain.BountyStatus(status)
	bounty.StartDate = bounty.StartDate.UTC()
	bounty.EndDate = bounty.EndDate.UTC()
	return &bounty, nil
}

func requireAffected(res sql.Result, what string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
