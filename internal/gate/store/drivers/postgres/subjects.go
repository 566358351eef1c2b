package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type subjectsRepo struct {
	db querier
}

func (r *subjectsRepo) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	const q = `
SELECT id, display_name, COALESCE(refresh_token_hash, ''), refresh_expires_at, created_at, updated_at
FROM subjects
WHERE id = $1`

	var s domain.Subject
	err := r.db.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.DisplayName, &s.RefreshTokenHash, &s.RefreshExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Subject{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subjectsRepo) CreateSubject(ctx context.Context, s domain.Subject) error {
	const q = `
INSERT INTO subjects (id, display_name, refresh_token_hash, refresh_expires_at)
VALUES ($1, $2, NULLIF($3, ''), $4)`

	_, err := r.db.Exec(ctx, q, s.ID, s.DisplayName, s.RefreshTokenHash, s.RefreshExpiresAt)
	return mapConstraint(err)
}

func (r *subjectsRepo) SwapRefreshToken(ctx context.Context, id, prev, next string, expiresAt *time.Time) error {
	const q = `
UPDATE subjects
SET refresh_token_hash = NULLIF($3, ''), refresh_expires_at = $4, updated_at = now()
WHERE id = $1 AND COALESCE(refresh_token_hash, '') = $2`

	if next == "" {
		expiresAt = nil
	}

	tag, err := r.db.Exec(ctx, q, id, prev, next, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRow(ctx, `SELECT 1 FROM subjects WHERE id = $1`, id).Scan(&exists); err != nil {
		return mapNotFound(err)
	}
	return store.ErrConflict
}

func (r *subjectsRepo) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	const q = `
UPDATE subjects
SET refresh_token_hash = NULL, refresh_expires_at = NULL, updated_at = now()
WHERE refresh_token_hash IS NOT NULL AND refresh_expires_at <= $1`

	tag, err := r.db.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *subjectsRepo) DeleteSubject(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
