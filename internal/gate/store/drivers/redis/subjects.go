package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/redis/go-redis/v9"
)

type subjectsRepo struct {
	client redis.UniversalClient
	prefix string
}

func (r *subjectsRepo) subjectPrefix() string       { return r.prefix + "subject:" }
func (r *subjectsRepo) subjectKey(id string) string { return r.subjectPrefix() + id }
func (r *subjectsRepo) expiryKey() string           { return r.prefix + "refresh_expiry" }

func (r *subjectsRepo) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	fields, err := r.client.HGetAll(ctx, r.subjectKey(id)).Result()
	if err != nil {
		return domain.Subject{}, err
	}
	if len(fields) == 0 {
		return domain.Subject{}, store.ErrNotFound
	}
	return mapSubject(fields)
}

func (r *subjectsRepo) CreateSubject(ctx context.Context, s domain.Subject) error {
	created, err := createSubjectLua.Run(ctx, r.client,
		[]string{r.subjectKey(s.ID), r.expiryKey()},
		s.ID,
		s.DisplayName,
		s.RefreshTokenHash,
		formatOptionalUnix(s.RefreshExpiresAt),
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *subjectsRepo) SwapRefreshToken(ctx context.Context, id, prev, next string, expiresAt *time.Time) error {
	if next == "" {
		expiresAt = nil
	}

	status, err := swapRefreshLua.Run(ctx, r.client,
		[]string{r.subjectKey(id), r.expiryKey()},
		id,
		prev,
		next,
		formatOptionalUnix(expiresAt),
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return err
	}

	switch status {
	case 1:
		return nil
	case 0:
		return store.ErrConflict
	default:
		return store.ErrNotFound
	}
}

func (r *subjectsRepo) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	n, err := clearExpiredLua.Run(ctx, r.client,
		[]string{r.expiryKey()},
		r.subjectPrefix(),
		now.Unix(),
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}
	return n, nil
}

func (r *subjectsRepo) DeleteSubject(ctx context.Context, id string) error {
	existed, err := deleteSubjectLua.Run(ctx, r.client,
		[]string{r.subjectKey(id), r.expiryKey()},
		id,
	).Int64()
	if err != nil {
		return err
	}
	if existed == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapSubject(fields map[string]string) (domain.Subject, error) {
	s := domain.Subject{
		ID:               fields["id"],
		DisplayName:      fields["display_name"],
		RefreshTokenHash: fields["refresh_token_hash"],
	}

	var err error
	if s.RefreshExpiresAt, err = parseOptionalUnix(fields["refresh_expires_at"]); err != nil {
		return domain.Subject{}, fmt.Errorf("subject %s: refresh_expires_at: %w", s.ID, err)
	}
	if s.CreatedAt, err = parseUnix(fields["created_at"]); err != nil {
		return domain.Subject{}, fmt.Errorf("subject %s: created_at: %w", s.ID, err)
	}
	if s.UpdatedAt, err = parseUnix(fields["updated_at"]); err != nil {
		return domain.Subject{}, fmt.Errorf("subject %s: updated_at: %w", s.ID, err)
	}
	return s, nil
}

func formatOptionalUnix(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func parseOptionalUnix(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := parseUnix(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseUnix(v string) (time.Time, error) {
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
