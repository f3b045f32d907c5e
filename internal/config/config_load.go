package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// poketwoID is the automated account the original deployment watches.
const poketwoID = "716390085896962058"

// DefaultKeywords are the trigger phrases enabled for a newly-seen guild.
var DefaultKeywords = []string{
	"shiny hunt pings",
	"collection pings",
	"rare ping",
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			WatchedBotID:  poketwoID,
			CommandPrefix: ".",
			UnlockRole:    "unlock",
		},
		Guard: GuardConfig{
			LockDuration:  "12h",
			SweepInterval: "60s",
			Keywords:      DefaultKeywords,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			SQLitePath: "~/.chanlock/chanlock.db",
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "chanlock",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("CHANLOCK_BOT_TOKEN", &c.Discord.Token)
	if c.Discord.Token == "" {
		// Name used by the original deployment's .env.
		envStr("BOT_TOKEN", &c.Discord.Token)
	}
	envStr("CHANLOCK_WATCHED_BOT_ID", &c.Discord.WatchedBotID)
	envStr("CHANLOCK_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("CHANLOCK_SQLITE_PATH", &c.Database.SQLitePath)
	envStr("CHANLOCK_OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	// PaaS supervisors (Render, Railway) inject the liveness port as PORT.
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord bot token is not set (CHANLOCK_BOT_TOKEN)")
	}
	if c.Discord.WatchedBotID == "" {
		return fmt.Errorf("discord.watched_bot_id is not set")
	}
	return nil
}

// ExpandHome expands a leading ~ in path to the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
