package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/tokengate/internal/gate/http"
	"github.com/aussiebroadwan/tokengate/internal/gate/metrics"
	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/internal/gate/store/drivers/postgres"
	"github.com/aussiebroadwan/tokengate/internal/gate/store/drivers/redis"
	"github.com/aussiebroadwan/tokengate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application wires the gate together and owns its lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	codec   *jwtx.Codec
	metrics *metrics.Metrics

	// Services
	engine              *service.Engine
	gate                *service.Gate
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger returns the process logger for cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "tokengate",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	codec, err := jwtx.NewCodec(cfg.CodecOptions(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if cfg.MetricsEnabled {
		m, err := metrics.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		app.metrics = m
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// OpenStore connects to the store selected by cfg.StoreDriver. It does not
// apply migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case DriverSQLite:
		st, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile))
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverRedis:
		st, err := redis.NewStore(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverPostgres:
		st, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("tokengate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tokengate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("tokengate stopped")
	return nil
}

// Close releases the store for an application that was never Run.
func (app *Application) Close() error {
	return app.db.Close()
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

func (app *Application) initStore() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.cfg.StoreDriver, err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() {
	app.engine = service.NewEngine(app.codec, service.NewIdentityStore(app.db.Subjects()))

	var recorder service.Recorder
	if app.metrics != nil {
		recorder = app.metrics
	}
	app.gate = service.NewGate(service.NewExtractor(app.cfg.Headers), app.engine, recorder)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	if app.metrics != nil {
		app.housekeepingService.OnCleanup = app.metrics.ObserveHousekeeping
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.cfg.Headers,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)
	router.Gate = app.gate
	router.Engine = app.engine
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
