// Package config defines service configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional .env file, then an
// optional YAML file named by SWISS_CONFIG, then SWISS_ prefixed environment
// variables.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TournamentName labels snapshots and the board page.
	TournamentName string `koanf:"tournament_name"`

	// StoreDriver picks the backing store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the DSN for sqlite or postgres.
	DatabaseURL string `koanf:"database_url"`

	DBMaxOpenConns     int `koanf:"db_max_open_conns"`
	DBConnectTimeoutMS int `koanf:"db_connect_timeout_ms"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkerCount sets how many workers publish standings updates.
	NotifyWorkerCount int `koanf:"notify_worker_count"`

	// DedupeSize bounds the idempotency key cache for match reports.
	DedupeSize int `koanf:"dedupe_size"`

	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// AdminJWTSecret signs admin tokens. Admin routes are open when empty.
	AdminJWTSecret       string `koanf:"admin_jwt_secret"`
	AdminPasswordHash    string `koanf:"admin_password_hash"`
	AdminTokenTTLMinutes int    `koanf:"admin_token_ttl_minutes"`

	// Snapshot export to S3 compatible storage.
	SnapshotEnabled         bool   `koanf:"snapshot_enabled"`
	SnapshotIntervalSeconds int    `koanf:"snapshot_interval_seconds"`
	SnapshotBucket          string `koanf:"snapshot_bucket"`
	SnapshotEndpoint        string `koanf:"snapshot_endpoint"`
	SnapshotRegion          string `koanf:"snapshot_region"`
	SnapshotAccessKeyID     string `koanf:"snapshot_access_key_id"`
	SnapshotSecretAccessKey string `koanf:"snapshot_secret_access_key"`
	SnapshotPrefix          string `koanf:"snapshot_prefix"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		TournamentName:          "Swiss Tournament",
		StoreDriver:             DriverSQLite,
		DatabaseURL:             "swiss.db",
		DBMaxOpenConns:          25,
		DBConnectTimeoutMS:      5_000,
		NotifyQueueSize:         1_024,
		NotifyWorkerCount:       1,
		DedupeSize:              50_000,
		CORSOrigins:             "*",
		AdminTokenTTLMinutes:    60,
		SnapshotIntervalSeconds: 300,
		SnapshotRegion:          "us-east-1",
		SnapshotPrefix:          "snapshots",
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver != DriverMemory && strings.TrimSpace(c.DatabaseURL) == "":
		return fmt.Errorf("%w: database_url is required for %s", ErrInvalidConfig, c.StoreDriver)
	case c.NotifyQueueSize <= 0:
		return fmt.Errorf("%w: notify_queue_size must be positive", ErrInvalidConfig)
	case c.NotifyWorkerCount <= 0:
		return fmt.Errorf("%w: notify_worker_count must be positive", ErrInvalidConfig)
	case c.AdminJWTSecret != "" && c.AdminPasswordHash == "":
		return fmt.Errorf("%w: admin_password_hash is required when admin_jwt_secret is set", ErrInvalidConfig)
	case c.AdminTokenTTLMinutes <= 0:
		return fmt.Errorf("%w: admin_token_ttl_minutes must be positive", ErrInvalidConfig)
	case c.SnapshotEnabled && c.SnapshotBucket == "":
		return fmt.Errorf("%w: snapshot_bucket is required when snapshots are enabled", ErrInvalidConfig)
	case c.SnapshotEnabled && c.SnapshotIntervalSeconds <= 0:
		return fmt.Errorf("%w: snapshot_interval_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// Origins splits CORSOrigins into a list, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ConnectTimeout returns DBConnectTimeoutMS as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.DBConnectTimeoutMS) * time.Millisecond
}

// TokenTTL returns how long admin tokens stay valid.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AdminTokenTTLMinutes) * time.Minute
}

// SnapshotInterval returns the period between scheduled snapshots.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalSeconds) * time.Second
}
