package service

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	id := idx.New().String()
	e := NewExtractor(HeaderNames{})

	t.Run("reads all three", func(t *testing.T) {
		creds, err := e.Extract(headers("access", "refresh", id))
		require.NoError(t, err)
		require.Equal(t, "access", creds.AccessToken)
		require.Equal(t, "refresh", creds.RefreshToken)
		require.Equal(t, id, creds.SubjectID)
	})

	t.Run("bearer scheme is optional", func(t *testing.T) {
		for _, v := range []string{"access", "Bearer access", "bearer access", "BEARER   access"} {
			h := headers("", "refresh", id)
			h.Set(DefaultAccessHeader, v)

			creds, err := e.Extract(h)
			require.NoError(t, err, v)
			require.Equal(t, "access", creds.AccessToken, v)
		}
	})

	t.Run("missing or blank", func(t *testing.T) {
		cases := map[string]http.Header{
			"no access":         headers("", "refresh", id),
			"no refresh":        headers("access", "", id),
			"no subject id":     headers("access", "refresh", ""),
			"nothing":           {},
			"bare scheme":       {DefaultAccessHeader: {"Bearer"}, DefaultRefreshHeader: {"r"}, DefaultSubjectIDHeader: {id}},
			"whitespace access": {DefaultAccessHeader: {"   "}, DefaultRefreshHeader: {"r"}, DefaultSubjectIDHeader: {id}},
		}
		for name, h := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := e.Extract(h)
				require.ErrorIs(t, err, ErrMissingCredentials)
			})
		}
	})

	t.Run("malformed identifier", func(t *testing.T) {
		for _, bad := range []string{"alice", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z", "01hq7t3z1mz0jq3m6mzq1fq3zv", "' OR 1=1 --"} {
			_, err := e.Extract(headers("access", "refresh", bad))
			require.ErrorIs(t, err, ErrMalformedIdentifier, bad)
		}
	})

	t.Run("custom header names", func(t *testing.T) {
		custom := NewExtractor(HeaderNames{Access: "X-Access", Refresh: "X-Refresh"})
		require.Equal(t, DefaultSubjectIDHeader, custom.Headers.SubjectID)

		h := http.Header{}
		h.Set("X-Access", "access")
		h.Set("X-Refresh", "refresh")
		h.Set(DefaultSubjectIDHeader, id)

		creds, err := custom.Extract(h)
		require.NoError(t, err)
		require.Equal(t, "access", creds.AccessToken)

		_, err = custom.Extract(headers("access", "refresh", id))
		require.ErrorIs(t, err, ErrMissingCredentials)
	})
}
