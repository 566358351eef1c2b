package http

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
)

type WhoAmIHandler struct{}

// ServeHTTP returns the subject resolved by the authentication middleware.
//
//	@Summary		Current subject
//	@Description	Returns the authenticated subject. When the access token had expired the response also carries a rotated token pair in the credential headers.
//	@Tags			Session
//	@Security		AccessToken
//	@Security		RefreshToken
//	@Security		SubjectID
//	@Produce		json
//	@Success		200	{object}	gatesdk.WhoAmIResponse	"subject_id, display_name, session_expires_at, rotated"
//	@Failure		401	{object}	gatesdk.ErrorResponse	"Credentials missing, invalid or superseded"
//	@Failure		429	{object}	gatesdk.ErrorResponse	"Rate limit exceeded"
//	@Header			200	{string}	Authorization			"Rotated access token, only when rotated"
//	@Header			200	{string}	X-Refresh-Token			"Rotated refresh token, only when rotated"
//	@Router			/v1/whoami [get].
func (h *WhoAmIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	outcome, ok := OutcomeFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	subject := outcome.Subject
	httpx.WriteJSON(w, http.StatusOK, gatesdk.WhoAmIResponse{
		SubjectID:        subject.ID,
		DisplayName:      subject.DisplayName,
		SessionExpiresAt: subject.RefreshExpiresAt,
		Rotated:          outcome.Decision == domain.DecisionRotated,
	})
}
