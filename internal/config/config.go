package config

import "time"

// Config is the root configuration for the chanlock bot.
type Config struct {
	Discord   DiscordConfig   `json:"discord"`
	Guard     GuardConfig     `json:"guard"`
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// DiscordConfig configures the Discord connection and command surface.
// The bot token is NEVER read from the config file (secret) — only from
// env CHANLOCK_BOT_TOKEN (or BOT_TOKEN).
type DiscordConfig struct {
	Token         string `json:"-"`                        // from env only
	WatchedBotID  string `json:"watched_bot_id,omitempty"` // automated account whose access gets locked
	CommandPrefix string `json:"command_prefix,omitempty"` // default "."
	UnlockRole    string `json:"unlock_role,omitempty"`    // role name allowed to use the unlock button
}

// GuardConfig configures the lock engine.
type GuardConfig struct {
	LockDuration  string   `json:"lock_duration,omitempty"`  // Go duration, default "12h"
	SweepInterval string   `json:"sweep_interval,omitempty"` // Go duration, default "60s"
	Keywords      []string `json:"keywords,omitempty"`       // default trigger phrases
	DigestCron    string   `json:"digest_cron,omitempty"`    // cron expr for the activity digest, empty = disabled
}

// ServerConfig configures the liveness HTTP endpoint.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// DatabaseConfig selects the storage backend.
// PostgresDSN is NEVER read from the config file (secret) — only from
// env CHANLOCK_POSTGRES_DSN. When set, Postgres replaces SQLite.
type DatabaseConfig struct {
	SQLitePath  string `json:"sqlite_path,omitempty"` // default ~/.chanlock/chanlock.db
	PostgresDSN string `json:"-"`                     // from env only
}

// TelemetryConfig configures OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`      // enable OTLP export (default false)
	Endpoint    string            `json:"endpoint,omitempty"`     // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // skip TLS (local dev)
	ServiceName string            `json:"service_name,omitempty"` // default "chanlock"
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (auth tokens)
}

// UsesPostgres reports whether the managed Postgres backend is selected.
func (c *Config) UsesPostgres() bool {
	return c.Database.PostgresDSN != ""
}

// ParsedLockDuration returns the parsed lock duration, falling back to the
// default on a missing or malformed value.
func (g GuardConfig) ParsedLockDuration() time.Duration {
	return parseDuration(g.LockDuration, 12*time.Hour)
}

// ParsedSweepInterval returns the parsed reconcile cadence.
func (g GuardConfig) ParsedSweepInterval() time.Duration {
	return parseDuration(g.SweepInterval, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
