package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// RevokeHandler serves POST /v1/session/revoke. It clears the subject's
// refresh token so neither token of the current pair can be used again once
// the access token expires.
type RevokeHandler struct {
	Engine  *service.Engine
	Headers service.HeaderNames
}

// ServeHTTP godoc
//
//	@Summary		End the current session
//	@Description	Clears the stored refresh token. The presented refresh token, or the one just rotated in by this request, must be current.
//	@Tags			Session
//	@Security		AccessToken
//	@Security		RefreshToken
//	@Security		SubjectID
//	@Success		204	"Session ended"
//	@Failure		401	{object}	gatesdk.ErrorResponse	"Credentials missing, invalid or superseded"
//	@Failure		429	{object}	gatesdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/session/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outcome, ok := OutcomeFromContext(ctx)
	if !ok {
		writeUnauthorized(w)
		return
	}

	headers := h.Headers.WithDefaults()

	// A rotation during this request already replaced the presented token.
	refreshToken := strings.TrimSpace(r.Header.Get(headers.Refresh))
	if outcome.Decision == domain.DecisionRotated && outcome.Issued != nil {
		refreshToken = outcome.Issued.RefreshToken
	}

	if err := h.Engine.Revoke(ctx, outcome.Subject.ID, refreshToken); err != nil {
		slogx.FromContext(ctx).Info("revoke rejected", "subject_id", outcome.Subject.ID, "error", err)
		writeUnauthorized(w)
		return
	}

	clearRotatedTokens(w, headers)
	w.WriteHeader(http.StatusNoContent)
}
