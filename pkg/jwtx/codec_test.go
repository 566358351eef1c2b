package jwtx_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-access-secret-0123456789")
	refreshSecret = []byte("refresh-secret-refresh-secret-0123456789")
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCodec(t *testing.T, clk *clock) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec(jwtx.Options{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "tokengate-test",
		Now:           clk.Now,
	})
	require.NoError(t, err)
	return c
}

func TestIssueAndVerify(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	for _, class := range []jwtx.Class{jwtx.ClassAccess, jwtx.ClassRefresh} {
		t.Run(string(class), func(t *testing.T) {
			token, issued, err := c.Issue("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", class)
			require.NoError(t, err)
			require.Equal(t, class, issued.Class)

			claims, err := c.Verify(token, class)
			require.NoError(t, err)
			require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.Subject)
			require.Equal(t, "tokengate-test", claims.Issuer)
			require.WithinDuration(t, clk.Now().Add(c.TTL(class)), claims.ExpiresAtTime(), 0)
			require.NotEmpty(t, claims.ID)
		})
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	a, _, err := c.Issue("subject", jwtx.ClassRefresh)
	require.NoError(t, err)
	b, _, err := c.Issue("subject", jwtx.ClassRefresh)
	require.NoError(t, err)

	require.NotEqual(t, a, b, "same subject, same second must still differ")
}

func TestVerifyExpired(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	token, _, err := c.Issue("subject", jwtx.ClassAccess)
	require.NoError(t, err)

	clk.Advance(15*time.Minute + time.Second)

	claims, err := c.Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrInvalidSig)
	require.Equal(t, "subject", claims.Subject, "expired tokens still report who they were for")
}

func TestVerifyLeeway(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c, err := jwtx.NewCodec(jwtx.Options{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Minute,
		Leeway:        30 * time.Second,
		Now:           clk.Now,
	})
	require.NoError(t, err)

	token, _, err := c.Issue("subject", jwtx.ClassAccess)
	require.NoError(t, err)

	clk.Advance(time.Minute + 10*time.Second)
	_, err = c.Verify(token, jwtx.ClassAccess)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = c.Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyTamperedIsNeverExpired(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	// Signed with a key we do not hold, exp far in the future.
	forged := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tokengate-test",
			Subject:   "subject",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		Class: jwtx.ClassAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte("attacker-controlled-secret-000000"))
	require.NoError(t, err)

	_, err = c.Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	// Still a signature failure once its exp has passed.
	clk.Advance(2 * time.Hour)
	_, err = c.Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	require.NotErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		Class: jwtx.ClassAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyClassSeparation(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	refresh, _, err := c.Issue("subject", jwtx.ClassRefresh)
	require.NoError(t, err)
	access, _, err := c.Issue("subject", jwtx.ClassAccess)
	require.NoError(t, err)

	_, err = c.Verify(refresh, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	_, err = c.Verify(access, jwtx.ClassRefresh)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestSameSecretStillSeparatesClasses(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c, err := jwtx.NewCodec(jwtx.Options{
		AccessSecret:  accessSecret,
		RefreshSecret: accessSecret,
		Now:           clk.Now,
	})
	require.NoError(t, err)

	refresh, _, err := c.Issue("subject", jwtx.ClassRefresh)
	require.NoError(t, err)

	_, err = c.Verify(refresh, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyMalformed(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newCodec(t, clk)

	for _, in := range []string{"", "not-a-jwt", "a.b", "a.b.c", strings.Repeat("x", 64)} {
		_, err := c.Verify(in, jwtx.ClassAccess)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "input %q", in)
	}
}

func TestVerifyIssuerMismatch(t *testing.T) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	other, err := jwtx.NewCodec(jwtx.Options{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		Issuer:        "someone-else",
		Now:           clk.Now,
	})
	require.NoError(t, err)

	token, _, err := other.Issue("subject", jwtx.ClassAccess)
	require.NoError(t, err)

	_, err = newCodec(t, clk).Verify(token, jwtx.ClassAccess)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestNewCodecRejectsWeakSecrets(t *testing.T) {
	_, err := jwtx.NewCodec(jwtx.Options{
		AccessSecret:  []byte("short"),
		RefreshSecret: refreshSecret,
	})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestDeriveKey(t *testing.T) {
	a, err := jwtx.DeriveKey(accessSecret, jwtx.ClassAccess)
	require.NoError(t, err)
	again, err := jwtx.DeriveKey(accessSecret, jwtx.ClassAccess)
	require.NoError(t, err)
	r, err := jwtx.DeriveKey(accessSecret, jwtx.ClassRefresh)
	require.NoError(t, err)

	require.Len(t, a, 32)
	require.Equal(t, a, again)
	require.NotEqual(t, a, r)

	_, err = jwtx.DeriveKey(accessSecret, jwtx.Class("id"))
	require.ErrorIs(t, err, jwtx.ErrUnknownClass)
}
