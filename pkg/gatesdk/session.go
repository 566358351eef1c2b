package gatesdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway treats an access token this close to expiry as expired, so a
// request that races the server clock still goes through the rotation path.
const expiryLeeway = 5 * time.Second

// Session carries one subject's token pair and keeps it current. It is safe
// for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	subjectID    string
	accessToken  string
	refreshToken string

	// rotateMu serialises requests while the access token is expired.
	rotateMu sync.Mutex

	// now is overridable in tests.
	now func() time.Time
}

// SubjectID returns the subject this session belongs to.
func (s *Session) SubjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjectID
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Do sends req with the session's credentials and adopts any rotated tokens
// returned by the server. The request must not already carry credential
// headers; they are overwritten.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if s.accessExpired() {
		s.rotateMu.Lock()
		defer s.rotateMu.Unlock()
	}

	s.mu.RLock()
	subjectID, access, refresh := s.subjectID, s.accessToken, s.refreshToken
	s.mu.RUnlock()

	if access == "" || refresh == "" {
		return nil, errors.New("session has been revoked")
	}

	h := s.client.Headers
	req.Header.Set(h.Access, "Bearer "+access)
	req.Header.Set(h.Refresh, refresh)
	req.Header.Set(h.SubjectID, subjectID)

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	s.adopt(resp.Header, refresh)
	return resp, nil
}

// WhoAmI returns the authenticated subject.
func (s *Session) WhoAmI(ctx context.Context) (*WhoAmIResponse, error) {
	resp, err := s.doRequest(ctx, http.MethodGet, "/v1/whoami", nil)
	if err != nil {
		return nil, err
	}

	var who WhoAmIResponse
	if err := decodeJSON(resp, &who, http.StatusOK); err != nil {
		return nil, err
	}

	return &who, nil
}

// Revoke ends the session on the server. The local tokens are cleared even if
// the server rejects the request, since a rejected session is unusable.
func (s *Session) Revoke(ctx context.Context) error {
	resp, err := s.doRequest(ctx, http.MethodPost, "/v1/session/revoke", nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()

	return checkStatusNoContent(resp)
}

func (s *Session) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.Do(req)
}

// adopt replaces the stored pair when the response carries a rotated one.
// sent is the refresh token the request presented; a response to an older
// request never overwrites a newer pair.
func (s *Session) adopt(header http.Header, sent string) {
	h := s.client.Headers
	access := stripBearer(header.Get(h.Access))
	refresh := strings.TrimSpace(header.Get(h.Refresh))
	if access == "" || refresh == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshToken != sent {
		return
	}
	s.accessToken = access
	s.refreshToken = refresh
}

// accessExpired reports whether the access token is expired or about to be.
// The signature is not checked; only the server can do that.
func (s *Session) accessExpired() bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return !now().Add(expiryLeeway).Before(claims.ExpiresAt.Time)
}

func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
