package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/metrics"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"

	_ "github.com/aussiebroadwan/tokengate/api/gate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	headers      service.HeaderNames
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	metrics *metrics.Metrics

	Gate   *service.Gate
	Engine *service.Engine
}

// NewRouter builds a router. m may be nil, in which case /metrics is not
// served and requests are not instrumented.
func NewRouter(
	codec *jwtx.Codec,
	headers service.HeaderNames,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		headers:      headers.WithDefaults(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
	}

	// The metrics middleware must sit directly on the mux to see the
	// matched route pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if m != nil {
		r.middlewares = append(r.middlewares, m.Middleware)
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tokengate API
//	@version		0.1.0
//	@description	Dual-token authentication gate. Every protected request carries an access token, a refresh token and the subject id.
//	@description
//	@description	When the access token has expired and the refresh token is still current the pair is rotated and returned in the same headers on the response.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/tokengate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	AccessToken
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	RefreshToken
//	@in							header
//	@name						X-Refresh-Token
//	@description				Refresh token paired with the access token.
//
//	@securityDefinitions.apikey	SubjectID
//	@in							header
//	@name						X-Auth-Id
//	@description				ULID of the subject both tokens were issued for.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// protected wraps h with the per-IP limit, the gate and the per-subject limit.
// The IP limit runs first so unauthenticated floods never reach the store.
func (r *Router) protected(h http.Handler) http.Handler {
	return httpx.Chain(h,
		httpx.RateLimitByIP(httpx.UnauthenticatedLimit),
		AuthnMiddleware(r.Gate, r.headers),
		httpx.RateLimitBySubject(httpx.ProtectedLimit),
	)
}

func (r *Router) registerSession() {
	r.Mux.Handle("GET /v1/whoami", r.protected(&WhoAmIHandler{}))

	r.Mux.Handle("POST /v1/session/revoke", r.protected(&RevokeHandler{
		Engine:  r.Engine,
		Headers: r.headers,
	}))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
