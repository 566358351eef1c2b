package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// Engine decides PASS, ROTATE or REJECT for a set of credentials.
type Engine struct {
	Codec    *jwtx.Codec
	Identity *IdentityStore
}

func NewEngine(codec *jwtx.Codec, identity *IdentityStore) *Engine {
	return &Engine{Codec: codec, Identity: identity}
}

// Evaluate runs the state machine for one request.
//
//   - access token valid: the refresh token must verify, both must name the
//     claimed subject and the refresh token must be the one on record.
//   - access token expired: the refresh token must verify and name the
//     claimed subject, then a new pair is issued and swapped in against the
//     presented refresh token.
//   - anything else: the codec error is returned unchanged.
//
// On rejection the returned error equals Outcome.Reason.
func (e *Engine) Evaluate(ctx context.Context, creds domain.Credentials) (domain.Outcome, error) {
	access, err := e.Codec.Verify(creds.AccessToken, jwtx.ClassAccess)
	switch {
	case err == nil:
		return e.pass(ctx, creds, access)
	case errors.Is(err, jwtx.ErrExpired):
		slogx.FromContext(ctx).Debug("access token expired, attempting rotation", "subject_id", creds.SubjectID)
		return e.rotate(ctx, creds, access)
	default:
		return reject(err)
	}
}

func (e *Engine) pass(ctx context.Context, creds domain.Credentials, access jwtx.Claims) (domain.Outcome, error) {
	refresh, err := e.Codec.Verify(creds.RefreshToken, jwtx.ClassRefresh)
	if err != nil {
		return reject(unauthorized("refresh token: %v", err))
	}
	if access.Subject != refresh.Subject {
		return reject(unauthorized("access and refresh tokens name different subjects"))
	}
	if access.Subject != creds.SubjectID {
		return reject(unauthorized("claimed subject does not match tokens"))
	}

	subject, err := e.load(ctx, creds.SubjectID)
	if err != nil {
		return reject(err)
	}
	if subject.ID != creds.SubjectID {
		return reject(unauthorized("subject record id mismatch"))
	}
	if !e.Identity.Matches(subject, creds.RefreshToken) {
		return reject(unauthorized("refresh token is not current"))
	}

	return domain.Pass(subject), nil
}

func (e *Engine) rotate(ctx context.Context, creds domain.Credentials, access jwtx.Claims) (domain.Outcome, error) {
	refresh, err := e.Codec.Verify(creds.RefreshToken, jwtx.ClassRefresh)
	if err != nil {
		return reject(unauthorized("refresh token: %v", err))
	}
	if refresh.Subject != creds.SubjectID {
		return reject(unauthorized("claimed subject does not match refresh token"))
	}
	if access.Subject != refresh.Subject {
		return reject(unauthorized("access and refresh tokens name different subjects"))
	}

	subject, err := e.load(ctx, creds.SubjectID)
	if err != nil {
		return reject(err)
	}

	pair, err := e.issuePair(subject.ID)
	if err != nil {
		return reject(unauthorized("issue: %v", err))
	}

	err = e.Identity.UpdateRefreshToken(ctx, subject.ID, creds.RefreshToken, pair.RefreshToken, &pair.RefreshExpiresAt)
	switch {
	case errors.Is(err, store.ErrConflict):
		slogx.FromContext(ctx).Info("refresh token replayed or rotated concurrently", "subject_id", subject.ID)
		return reject(unauthorized("refresh token is not current"))
	case errors.Is(err, store.ErrNotFound):
		return reject(unauthorized("subject not found"))
	case err != nil:
		slogx.FromContext(ctx).Warn("failed to persist rotated refresh token", "subject_id", subject.ID, "error", err)
		return reject(unauthorized("persist rotated refresh token"))
	}

	subject.RefreshTokenHash = fingerprint(pair.RefreshToken)
	subject.RefreshExpiresAt = &pair.RefreshExpiresAt
	subject.UpdatedAt = e.Codec.Now()

	slogx.FromContext(ctx).Info("rotated token pair", "subject_id", subject.ID)
	return domain.Rotated(subject, pair), nil
}

// load collapses "not found" and store failures into ErrUnauthorized. The
// store failure is logged since it never reaches the caller.
func (e *Engine) load(ctx context.Context, id string) (domain.Subject, error) {
	subject, ok, err := e.Identity.LoadByID(ctx, id)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load subject", "subject_id", id, "error", err)
		return domain.Subject{}, unauthorized("load subject")
	}
	if !ok {
		return domain.Subject{}, unauthorized("subject not found")
	}
	return subject, nil
}

func (e *Engine) issuePair(subjectID string) (domain.TokenPair, error) {
	access, accessClaims, err := e.Codec.Issue(subjectID, jwtx.ClassAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshClaims, err := e.Codec.Issue(subjectID, jwtx.ClassRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAtTime(),
		RefreshExpiresAt: refreshClaims.ExpiresAtTime(),
	}, nil
}

// Issue mints an initial pair for an existing subject, replacing any current
// session. Used by operator tooling, not by the request path.
func (e *Engine) Issue(ctx context.Context, subjectID string) (domain.TokenPair, error) {
	subject, ok, err := e.Identity.LoadByID(ctx, subjectID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("load subject: %w", err)
	}
	if !ok {
		return domain.TokenPair{}, ErrSubjectNotFound
	}

	pair, err := e.issuePair(subject.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := e.Identity.ReplaceRefreshToken(ctx, subject, pair.RefreshToken, &pair.RefreshExpiresAt); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	slogx.FromContext(ctx).Info("issued token pair", "subject_id", subject.ID)
	return pair, nil
}

// Revoke ends the session held by refreshToken. It fails with
// ErrUnauthorized if refreshToken is not the current one.
func (e *Engine) Revoke(ctx context.Context, subjectID, refreshToken string) error {
	if refreshToken == "" {
		return unauthorized("no refresh token")
	}

	err := e.Identity.UpdateRefreshToken(ctx, subjectID, refreshToken, "", nil)
	switch {
	case err == nil:
		slogx.FromContext(ctx).Info("revoked session", "subject_id", subjectID)
		return nil
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		return unauthorized("refresh token is not current")
	default:
		slogx.FromContext(ctx).Warn("failed to revoke session", "subject_id", subjectID, "error", err)
		return unauthorized("revoke session")
	}
}

func reject(err error) (domain.Outcome, error) {
	return domain.Rejected(err), err
}
