package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
)

type ctxKey int

const ctxKeyOutcome ctxKey = iota

// wwwAuthenticate is sent with every 401.
const wwwAuthenticate = `Bearer realm="tokengate"`

// AuthnMiddleware admits a request only if the gate passes or rotates its
// credentials.
//
// On success the subject is stored in the request context and its id is
// stored under httpx.CtxKeyUserID. On rotation the new tokens are written as
// response headers, using the inbound header names, before next runs. Every
// failure gets the same 401 body regardless of cause.
func AuthnMiddleware(gate *service.Gate, headers service.HeaderNames) httpx.Middleware {
	headers = headers.WithDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			outcome, err := gate.Authorize(ctx, r.Header)
			if err != nil || !outcome.Authorized() {
				writeUnauthorized(w)
				return
			}

			if outcome.Decision == domain.DecisionRotated && outcome.Issued != nil {
				writeRotatedTokens(w, headers, *outcome.Issued)
			}

			ctx = context.WithValue(ctx, ctxKeyOutcome, outcome)
			ctx = httpx.WithUserID(ctx, outcome.Subject.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OutcomeFromContext returns the authorization outcome stored by
// AuthnMiddleware.
func OutcomeFromContext(ctx context.Context) (domain.Outcome, bool) {
	o, ok := ctx.Value(ctxKeyOutcome).(domain.Outcome)
	return o, ok && o.Authorized()
}

// SubjectFromContext returns the authenticated subject.
func SubjectFromContext(ctx context.Context) (domain.Subject, bool) {
	o, ok := OutcomeFromContext(ctx)
	if !ok {
		return domain.Subject{}, false
	}
	return o.Subject, true
}

func writeRotatedTokens(w http.ResponseWriter, headers service.HeaderNames, pair domain.TokenPair) {
	h := w.Header()
	h.Set(headers.Access, "Bearer "+pair.AccessToken)
	h.Set(headers.Refresh, pair.RefreshToken)
	h.Add("Access-Control-Expose-Headers", headers.Access+", "+headers.Refresh)
	httpx.NoCache(w)
}

// clearRotatedTokens undoes writeRotatedTokens for handlers that end the
// session before responding.
func clearRotatedTokens(w http.ResponseWriter, headers service.HeaderNames) {
	h := w.Header()
	h.Del(headers.Access)
	h.Del(headers.Refresh)
	h.Del("Access-Control-Expose-Headers")
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", wwwAuthenticate)
	gatesdk.ErrUnauthorized.WriteError(w)
}
