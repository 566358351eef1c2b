package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"256-bit secret", SecretSize256},
		{"512-bit secret", SecretSize512},
		{"custom size", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEmpty(t, a)

			b, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, a, b, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}

func TestEqualFingerprints(t *testing.T) {
	fp := FingerprintToken("refresh")

	require.True(t, EqualFingerprints(fp, FingerprintToken("refresh")))
	require.False(t, EqualFingerprints(fp, FingerprintToken("other")))
	require.False(t, EqualFingerprints("", ""), "empty stored value must not match")
	require.False(t, EqualFingerprints(fp, ""))
}
