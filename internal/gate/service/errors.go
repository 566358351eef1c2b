package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

var (
	// ErrMissingCredentials is returned before any verification when one of
	// the three credentials is absent or blank.
	ErrMissingCredentials = errors.New("missing_credentials")

	// ErrMalformedIdentifier is returned when the claimed subject id is not a
	// canonical ULID.
	ErrMalformedIdentifier = errors.New("malformed_identifier")

	// ErrUnauthorized covers every cross-check, mismatch and rotation failure.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSubjectNotFound is only returned to operator tooling, never from the
	// authentication path.
	ErrSubjectNotFound = errors.New("subject_not_found")
)

// Reason maps an authorization error to a stable, low-cardinality label for
// logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrMalformedIdentifier):
		return "malformed_identifier"
	case errors.Is(err, jwtx.ErrMalformed):
		return "malformed_token"
	case errors.Is(err, jwtx.ErrInvalidSig):
		return "invalid_signature"
	case errors.Is(err, jwtx.ErrExpired):
		return "expired"
	case errors.Is(err, jwtx.ErrInvalidClaim):
		return "invalid_claim"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}
