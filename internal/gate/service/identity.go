package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
)

// IdentityStore adapts store.Subjects to the authentication path. Raw refresh
// tokens go in, only fingerprints reach the store. It never retries.
type IdentityStore struct {
	Subjects store.Subjects
}

func NewIdentityStore(subjects store.Subjects) *IdentityStore {
	return &IdentityStore{Subjects: subjects}
}

// LoadByID returns the subject and whether it exists. A missing subject is
// not an error.
func (a *IdentityStore) LoadByID(ctx context.Context, id string) (domain.Subject, bool, error) {
	s, err := a.Subjects.GetSubjectByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Subject{}, false, nil
	}
	if err != nil {
		return domain.Subject{}, false, err
	}
	return s, true, nil
}

// UpdateRefreshToken atomically replaces prevToken with nextToken. Either may
// be empty to mean "no session". Returns store.ErrConflict if prevToken is no
// longer current.
func (a *IdentityStore) UpdateRefreshToken(ctx context.Context, id, prevToken, nextToken string, expiresAt *time.Time) error {
	return a.Subjects.SwapRefreshToken(ctx, id, fingerprint(prevToken), fingerprint(nextToken), expiresAt)
}

// ReplaceRefreshToken installs nextToken over whatever s currently holds,
// failing with store.ErrConflict if s is stale.
func (a *IdentityStore) ReplaceRefreshToken(ctx context.Context, s domain.Subject, nextToken string, expiresAt *time.Time) error {
	return a.Subjects.SwapRefreshToken(ctx, s.ID, s.RefreshTokenHash, fingerprint(nextToken), expiresAt)
}

// Matches reports whether token is the subject's current refresh token.
func (a *IdentityStore) Matches(s domain.Subject, token string) bool {
	return cryptox.EqualFingerprints(s.RefreshTokenHash, fingerprint(token))
}

func fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return cryptox.FingerprintToken(token)
}
