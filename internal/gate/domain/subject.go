package domain

import "time"

// Subject is the identity a token pair is issued for.
type Subject struct {
	ID               string
	DisplayName      string
	RefreshTokenHash string     // fingerprint of the current refresh token, empty when signed out
	RefreshExpiresAt *time.Time // expiry of the current refresh token (nullable)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSession reports whether the subject currently holds a refresh token.
func (s Subject) HasSession() bool {
	return s.RefreshTokenHash != ""
}
