package service

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
)

// Default credential header names.
const (
	DefaultAccessHeader    = gatesdk.HeaderAccessToken
	DefaultRefreshHeader   = gatesdk.HeaderRefreshToken
	DefaultSubjectIDHeader = gatesdk.HeaderSubjectID
)

// Metadata is a read-only view of request metadata. http.Header satisfies it.
type Metadata interface {
	Get(key string) string
}

// HeaderNames names the three inbound credential headers. The same names are
// used for rotated tokens on the way out.
type HeaderNames struct {
	Access    string `yaml:"access"`
	Refresh   string `yaml:"refresh"`
	SubjectID string `yaml:"subject_id"`
}

// DefaultHeaderNames returns the documented defaults.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		Access:    DefaultAccessHeader,
		Refresh:   DefaultRefreshHeader,
		SubjectID: DefaultSubjectIDHeader,
	}
}

// WithDefaults fills any blank name with its default.
func (h HeaderNames) WithDefaults() HeaderNames {
	d := DefaultHeaderNames()
	if h.Access == "" {
		h.Access = d.Access
	}
	if h.Refresh == "" {
		h.Refresh = d.Refresh
	}
	if h.SubjectID == "" {
		h.SubjectID = d.SubjectID
	}
	return h
}

// Extractor pulls credentials out of request metadata.
type Extractor struct {
	Headers HeaderNames
}

func NewExtractor(headers HeaderNames) *Extractor {
	return &Extractor{Headers: headers.WithDefaults()}
}

// Extract reads the three credentials. It fails closed with
// ErrMissingCredentials if any is blank and with ErrMalformedIdentifier if
// the subject id is not a canonical ULID. No cryptographic work happens here.
func (e *Extractor) Extract(md Metadata) (domain.Credentials, error) {
	creds := domain.Credentials{
		AccessToken:  stripBearer(md.Get(e.Headers.Access)),
		RefreshToken: strings.TrimSpace(md.Get(e.Headers.Refresh)),
		SubjectID:    strings.TrimSpace(md.Get(e.Headers.SubjectID)),
	}

	var missing []string
	if creds.AccessToken == "" {
		missing = append(missing, e.Headers.Access)
	}
	if creds.RefreshToken == "" {
		missing = append(missing, e.Headers.Refresh)
	}
	if creds.SubjectID == "" {
		missing = append(missing, e.Headers.SubjectID)
	}
	if len(missing) > 0 {
		return domain.Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if _, err := idx.Parse(creds.SubjectID); err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", ErrMalformedIdentifier, err)
	}

	return creds, nil
}

// stripBearer removes an optional, case-insensitive "Bearer " scheme.
func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 6 && strings.EqualFold(v[:6], "bearer") {
		if len(v) == 6 {
			return ""
		}
		if v[6] == ' ' || v[6] == '\t' {
			return strings.TrimSpace(v[7:])
		}
	}
	return v
}
