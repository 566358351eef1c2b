package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are short lived; refresh tokens live long
// enough to carry a session across a working week.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Class separates access tokens from refresh tokens. Each class is signed
// with its own key.
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

func (c Class) valid() bool {
	return c == ClassAccess || c == ClassRefresh
}

// Claims carried by both token classes.
type Claims struct {
	jwt.RegisteredClaims

	// Class the token was issued as ("access" or "refresh").
	Class Class `json:"cls"`
}

// ExpiresAtTime returns exp as a time.Time, or the zero time when absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
