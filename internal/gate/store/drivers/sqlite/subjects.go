package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
)

type subjectsRepo struct {
	db *sql.DB
}

const getSubjectByID = `
SELECT id, display_name, COALESCE(refresh_token_hash, ''), refresh_expires_at, created_at, updated_at
FROM subjects
WHERE id = ?`

func (r *subjectsRepo) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	var (
		s                  domain.Subject
		expiresAt          sql.NullInt64
		createdAt, updated int64
	)
	err := r.db.QueryRowContext(ctx, getSubjectByID, id).Scan(
		&s.ID, &s.DisplayName, &s.RefreshTokenHash, &expiresAt, &createdAt, &updated,
	)
	if err != nil {
		return domain.Subject{}, mapNotFound(err)
	}
	s.RefreshExpiresAt = mapNullUnixPtr(expiresAt)
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updated, 0).UTC()
	return s, nil
}

const createSubject = `
INSERT INTO subjects (id, display_name, refresh_token_hash, refresh_expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (r *subjectsRepo) CreateSubject(ctx context.Context, s domain.Subject) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx, createSubject,
		s.ID,
		s.DisplayName,
		mapStringNull(s.RefreshTokenHash),
		mapOptionalUnix(s.RefreshExpiresAt),
		now,
		now,
	)
	return mapConstraint(err)
}

const swapRefreshToken = `
UPDATE subjects
SET refresh_token_hash = ?, refresh_expires_at = ?, updated_at = ?
WHERE id = ? AND COALESCE(refresh_token_hash, '') = ?`

func (r *subjectsRepo) SwapRefreshToken(ctx context.Context, id, prev, next string, expiresAt *time.Time) error {
	if next == "" {
		expiresAt = nil
	}

	res, err := r.db.ExecContext(ctx, swapRefreshToken,
		mapStringNull(next),
		mapOptionalUnix(expiresAt),
		time.Now().Unix(),
		id,
		prev,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: either the subject is gone or prev is stale.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM subjects WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrConflict
}

const clearExpiredRefreshTokens = `
UPDATE subjects
SET refresh_token_hash = NULL, refresh_expires_at = NULL, updated_at = ?
WHERE refresh_token_hash IS NOT NULL AND refresh_expires_at IS NOT NULL AND refresh_expires_at <= ?`

func (r *subjectsRepo) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, clearExpiredRefreshTokens, time.Now().Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *subjectsRepo) DeleteSubject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
