package gatesdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to a tokengate protected service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    HeaderNames
}

// NewClient creates a client with the default header names.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Headers: DefaultHeaderNames(),
	}
}

// NewSession creates a session from an existing token pair.
func (c *Client) NewSession(subjectID, accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		subjectID:    subjectID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}
