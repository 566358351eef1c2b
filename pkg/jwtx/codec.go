package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Options configures a Codec.
type Options struct {
	AccessSecret  []byte
	RefreshSecret []byte

	// Zero values fall back to DefaultAccessTokenTTL / DefaultRefreshTokenTTL.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Issuer is written into every token and, when set, required on verify.
	Issuer string

	// Leeway tolerates small clock skew on exp/nbf.
	Leeway time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Codec issues and verifies HS256 tokens for both token classes.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	keys   map[Class][]byte
	ttls   map[Class]time.Duration
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewCodec derives the per-class keys and returns a ready Codec.
func NewCodec(opts Options) (*Codec, error) {
	accessKey, err := DeriveKey(opts.AccessSecret, ClassAccess)
	if err != nil {
		return nil, err
	}
	refreshKey, err := DeriveKey(opts.RefreshSecret, ClassRefresh)
	if err != nil {
		return nil, err
	}

	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTokenTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Codec{
		keys: map[Class][]byte{
			ClassAccess:  accessKey,
			ClassRefresh: refreshKey,
		},
		ttls: map[Class]time.Duration{
			ClassAccess:  opts.AccessTTL,
			ClassRefresh: opts.RefreshTTL,
		},
		issuer: opts.Issuer,
		leeway: opts.Leeway,
		now:    opts.Now,
	}, nil
}

// Now returns the codec clock reading.
func (c *Codec) Now() time.Time { return c.now() }

// IsReady reports whether both class keys are loaded.
func (c *Codec) IsReady() bool {
	return c != nil && len(c.keys[ClassAccess]) > 0 && len(c.keys[ClassRefresh]) > 0
}

// TTL returns the configured lifetime for class.
func (c *Codec) TTL(class Class) time.Duration { return c.ttls[class] }

// Issue signs a new token of the given class for subject. Every token gets a
// random jti so two tokens minted in the same second still differ.
func (c *Codec) Issue(subject string, class Class) (string, Claims, error) {
	key, ok := c.keys[class]
	if !ok {
		return "", Claims{}, ErrUnknownClass
	}
	if subject == "" {
		return "", Claims{}, fmt.Errorf("%w: empty subject", ErrInvalidClaim)
	}

	now := c.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttls[class])),
			ID:        uuid.NewString(),
		},
		Class: class,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign %s token: %w", class, err)
	}
	return signed, claims, nil
}

// Verify checks token against the key of class. The signature is checked
// before any time based claim, so a forged token reports ErrInvalidSig even
// when its exp has passed. Errors wrap one of ErrMalformed, ErrInvalidSig,
// ErrExpired or ErrInvalidClaim. With ErrExpired the decoded claims are
// returned alongside the error.
func (c *Codec) Verify(token string, class Class) (Claims, error) {
	key, ok := c.keys[class]
	if !ok {
		return Claims{}, ErrUnknownClass
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(c.leeway),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrExpired) && claims.Class == class {
			// The signature held, so the claims are still returned for callers
			// that rotate expired tokens.
			return claims, err
		}
		return Claims{}, err
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	if claims.Class != class {
		return Claims{}, fmt.Errorf("%w: want %s token, got %q", ErrInvalidClaim, class, claims.Class)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
