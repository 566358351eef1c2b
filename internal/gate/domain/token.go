package domain

import "time"

// Credentials are the three values a caller presents on every request.
// They are never persisted.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	SubjectID    string
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
