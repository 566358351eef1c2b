package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/tokengate/internal/gate/service"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer        string        `yaml:"issuer"`         // Optional: issuer claim, required on verify when set (default: tokengate)
	AccessSecret  string        `yaml:"access_secret"`  // Required: HMAC secret for access tokens, at least 32 bytes
	RefreshSecret string        `yaml:"refresh_secret"` // Required: HMAC secret for refresh tokens, distinct from AccessSecret
	AccessTTL     time.Duration `yaml:"access_ttl"`     // Access token lifetime (default: 15m)
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`    // Refresh token lifetime (default: 7d)
	ClockLeeway   time.Duration `yaml:"clock_leeway"`   // Tolerated clock skew on exp/nbf (default: 0)

	Headers service.HeaderNames `yaml:"headers"` // Credential header names (default: Authorization, X-Refresh-Token, X-Auth-Id)

	StoreDriver  string `yaml:"store_driver"`  // sqlite, redis or postgres (default: sqlite)
	DatabaseFile string `yaml:"database_file"` // sqlite database path (default: tokengate.db)
	RedisURL     string `yaml:"redis_url"`     // Required for the redis driver
	RedisPrefix  string `yaml:"redis_prefix"`  // Key prefix for the redis driver (default: tokengate:)
	PostgresDSN  string `yaml:"postgres_dsn"`  // Required for the postgres driver

	Env                  string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // Expired session cleanup interval (default: 1h)
	MetricsEnabled       bool          `yaml:"metrics_enabled"`       // Serve /metrics (default: true)
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Issuer:               "tokengate",
		AccessTTL:            jwtx.DefaultAccessTokenTTL,
		RefreshTTL:           jwtx.DefaultRefreshTokenTTL,
		Headers:              service.DefaultHeaderNames(),
		StoreDriver:          DriverSQLite,
		DatabaseFile:         "tokengate.db",
		RedisPrefix:          "tokengate:",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
		MetricsEnabled:       true,
	}
}

// LoadConfig builds a Config in layers: defaults, then the optional YAML file
// at path, then environment variables. A .env file in the working directory
// is loaded into the environment first if present; variables already set in
// the process win over it.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Issuer = getEnvOrDefault("GATE_ISSUER", cfg.Issuer)
	cfg.AccessTTL = getEnvDurationOrDefault("GATE_ACCESS_TTL", cfg.AccessTTL)
	cfg.RefreshTTL = getEnvDurationOrDefault("GATE_REFRESH_TTL", cfg.RefreshTTL)
	cfg.ClockLeeway = getEnvDurationOrDefault("GATE_CLOCK_LEEWAY", cfg.ClockLeeway)

	cfg.Headers.Access = getEnvOrDefault("GATE_ACCESS_HEADER", cfg.Headers.Access)
	cfg.Headers.Refresh = getEnvOrDefault("GATE_REFRESH_HEADER", cfg.Headers.Refresh)
	cfg.Headers.SubjectID = getEnvOrDefault("GATE_SUBJECT_ID_HEADER", cfg.Headers.SubjectID)
	cfg.Headers = cfg.Headers.WithDefaults()

	cfg.StoreDriver = strings.ToLower(getEnvOrDefault("GATE_STORE_DRIVER", cfg.StoreDriver))
	cfg.DatabaseFile = getEnvOrDefault("GATE_DATABASE_FILE", cfg.DatabaseFile)
	cfg.RedisURL = getEnvOrDefault("GATE_REDIS_URL", cfg.RedisURL)
	cfg.RedisPrefix = getEnvOrDefault("GATE_REDIS_PREFIX", cfg.RedisPrefix)
	cfg.PostgresDSN = getEnvOrDefault("GATE_POSTGRES_DSN", cfg.PostgresDSN)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
	cfg.MetricsEnabled = getEnvBoolOrDefault("METRICS_ENABLED", cfg.MetricsEnabled)

	var err error
	if cfg.AccessSecret, err = getSecret("GATE_ACCESS_SECRET", cfg.AccessSecret); err != nil {
		return Config{}, err
	}
	if cfg.RefreshSecret, err = getSecret("GATE_REFRESH_SECRET", cfg.RefreshSecret); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every problem with cfg at once.
func (cfg Config) Validate() error {
	var errs []error

	if len(cfg.AccessSecret) < cryptox.SecretSize256 {
		errs = append(errs, fmt.Errorf("access secret must be at least %d bytes", cryptox.SecretSize256))
	}
	if len(cfg.RefreshSecret) < cryptox.SecretSize256 {
		errs = append(errs, fmt.Errorf("refresh secret must be at least %d bytes", cryptox.SecretSize256))
	}
	if cfg.AccessSecret != "" && cfg.AccessSecret == cfg.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	} else if cfg.AccessTTL >= cfg.RefreshTTL {
		errs = append(errs, fmt.Errorf("access ttl %s must be shorter than refresh ttl %s", cfg.AccessTTL, cfg.RefreshTTL))
	}
	if cfg.ClockLeeway < 0 {
		errs = append(errs, errors.New("clock leeway must not be negative"))
	}

	h := cfg.Headers.WithDefaults()
	if strings.EqualFold(h.Access, h.Refresh) ||
		strings.EqualFold(h.Access, h.SubjectID) ||
		strings.EqualFold(h.Refresh, h.SubjectID) {
		errs = append(errs, errors.New("credential header names must be distinct"))
	}

	switch cfg.StoreDriver {
	case DriverSQLite:
		if cfg.DatabaseFile == "" {
			errs = append(errs, errors.New("sqlite driver requires a database file"))
		}
	case DriverRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("redis driver requires GATE_REDIS_URL"))
		}
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres driver requires GATE_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", cfg.StoreDriver))
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", cfg.Port))
	}

	return errors.Join(errs...)
}

// CodecOptions returns the token codec settings. now may be nil.
func (cfg Config) CodecOptions(now func() time.Time) jwtx.Options {
	return jwtx.Options{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.Issuer,
		Leeway:        cfg.ClockLeeway,
		Now:           now,
	}
}

// getSecret reads key, then key_FILE, then falls back to current. A file
// value has its trailing newline trimmed.
func getSecret(key, current string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s_FILE: %w", key, err)
		}
		return strings.TrimRight(string(raw), "\r\n"), nil
	}
	return current, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
