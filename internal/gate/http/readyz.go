package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the identity store and token codec
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	gatesdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	codec *jwtx.Codec,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &gatesdk.HealthChecks{
			Store: "ok",
			Codec: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !codec.IsReady() {
			checks.Codec = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, gatesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
