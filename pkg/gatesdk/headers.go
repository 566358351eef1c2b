package gatesdk

// Default credential header names. They are used inbound and, for rotated
// tokens, outbound.
const (
	HeaderAccessToken  = "Authorization"
	HeaderRefreshToken = "X-Refresh-Token"
	HeaderSubjectID    = "X-Auth-Id"
)

// HeaderNames lets a client talk to a server configured with non-default
// header names.
type HeaderNames struct {
	Access    string
	Refresh   string
	SubjectID string
}

// DefaultHeaderNames returns the documented defaults.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		Access:    HeaderAccessToken,
		Refresh:   HeaderRefreshToken,
		SubjectID: HeaderSubjectID,
	}
}
