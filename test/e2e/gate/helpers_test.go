//go:build e2e

package gate_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/tokengate/internal/gate/app"
	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/pkg/gatesdk"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

/*
 * Shared setup for the gate end-to-end tests. Each test gets a fresh store
 * container and an in-process gate wired to it exactly as `tokengate serve`
 * wires it.
 */

const (
	accessSecret  = "e2e-access-secret-0123456789abcdefghij"
	refreshSecret = "e2e-refresh-secret-0123456789abcdefghi"

	// Short enough that tests can wait it out.
	accessTTL = 2 * time.Second
)

var drivers = []string{app.DriverSQLite, app.DriverRedis, app.DriverPostgres}

type gateEnv struct {
	cfg     app.Config
	baseURL string
	client  *gatesdk.Client
	engine  *service.Engine
	seed    func(t *testing.T) string
}

// startContainer runs req and returns host:port for the first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, nat.Port(req.ExposedPorts[0]))
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

func startRedis(t *testing.T) string {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	})
	return "redis://" + addr + "/0"
}

func startPostgres(t *testing.T) string {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gate",
			"POSTGRES_PASSWORD": "gate",
			"POSTGRES_DB":       "gate",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	return "postgres://gate:gate@" + addr + "/gate?sslmode=disable"
}

// setupGate starts the store for driver and a gate in front of it.
func setupGate(t *testing.T, driver string) *gateEnv {
	t.Helper()
	ctx := context.Background()

	cfg := app.DefaultConfig()
	cfg.AccessSecret = accessSecret
	cfg.RefreshSecret = refreshSecret
	cfg.AccessTTL = accessTTL
	cfg.LogLevel = "warn"
	cfg.StoreDriver = driver

	switch driver {
	case app.DriverSQLite:
		cfg.DatabaseFile = t.TempDir() + "/gate.db"
	case app.DriverRedis:
		cfg.RedisURL = startRedis(t)
		cfg.RedisPrefix = "e2e:" + idx.New().String() + ":"
	case app.DriverPostgres:
		cfg.PostgresDSN = startPostgres(t)
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	ts := httptest.NewServer(application.Handler())
	t.Cleanup(ts.Close)

	// Operator tooling talks to the store directly, like the CLI does.
	st, err := app.OpenStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec(cfg.CodecOptions(nil))
	require.NoError(t, err)

	env := &gateEnv{
		cfg:     cfg,
		baseURL: ts.URL,
		client:  gatesdk.NewClient(ts.URL),
		engine:  service.NewEngine(codec, service.NewIdentityStore(st.Subjects())),
	}
	env.seed = func(t *testing.T) string {
		t.Helper()
		id := idx.New().String()
		require.NoError(t, st.Subjects().CreateSubject(context.Background(), domain.Subject{ID: id, DisplayName: "e2e"}))
		return id
	}
	return env
}

// signIn creates a subject and issues its first pair.
func (e *gateEnv) signIn(t *testing.T) (string, domain.TokenPair) {
	t.Helper()
	id := e.seed(t)
	pair, err := e.engine.Issue(context.Background(), id)
	require.NoError(t, err)
	return id, pair
}

// rawStatus sends credentials without a Session so tests control replay.
// It is safe to call from any goroutine.
func (e *gateEnv) rawStatus(ctx context.Context, subjectID, access, refresh string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v1/whoami", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(gatesdk.HeaderAccessToken, "Bearer "+access)
	req.Header.Set(gatesdk.HeaderRefreshToken, refresh)
	req.Header.Set(gatesdk.HeaderSubjectID, subjectID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func (e *gateEnv) requireStatus(t *testing.T, want int, subjectID, access, refresh string, msgAndArgs ...any) {
	t.Helper()
	got, err := e.rawStatus(t.Context(), subjectID, access, refresh)
	require.NoError(t, err)
	require.Equal(t, want, got, msgAndArgs...)
}

// waitForAccessExpiry sleeps until tokens issued now have expired.
func waitForAccessExpiry() {
	time.Sleep(accessTTL + 1500*time.Millisecond)
}
