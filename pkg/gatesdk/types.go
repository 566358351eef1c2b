package gatesdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// WhoAmIResponse is returned from GET /v1/whoami.
type WhoAmIResponse struct {
	// SubjectID is the authenticated subject's id
	SubjectID string `json:"subject_id"`

	// DisplayName is the subject's display name
	DisplayName string `json:"display_name,omitempty"`

	// SessionExpiresAt is when the current refresh token expires
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`

	// Rotated is true when this very request rotated the token pair
	Rotated bool `json:"rotated"`
}

// TokenPairResponse is a freshly issued pair as printed by operator tooling.
type TokenPairResponse struct {
	SubjectID        string    `json:"subject_id"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical dependencies.
type HealthChecks struct {
	// Store indicates the identity store connection status
	Store string `json:"store"`

	// Codec indicates whether the token codec is configured
	Codec string `json:"codec"`
}
