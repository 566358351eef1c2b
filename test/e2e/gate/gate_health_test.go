//go:build e2e

package gate_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			env := setupGate(t, driver)

			live, err := env.client.GetLiveness(t.Context())
			require.NoError(t, err)
			require.Equal(t, "ok", live.Status)

			ready, err := env.client.GetReadiness(t.Context())
			require.NoError(t, err)
			require.Equal(t, "ok", ready.Status)
			require.NotNil(t, ready.Checks)
			require.Equal(t, "ok", ready.Checks.Store)
			require.Equal(t, "ok", ready.Checks.Codec)
		})
	}
}
