package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Discord.WatchedBotID != poketwoID {
		t.Errorf("watched bot id = %q, want %q", cfg.Discord.WatchedBotID, poketwoID)
	}
	if cfg.Discord.CommandPrefix != "." {
		t.Errorf("prefix = %q, want .", cfg.Discord.CommandPrefix)
	}
	if cfg.Discord.UnlockRole != "unlock" {
		t.Errorf("unlock role = %q, want unlock", cfg.Discord.UnlockRole)
	}
	if got := cfg.Guard.ParsedLockDuration(); got != 12*time.Hour {
		t.Errorf("lock duration = %v, want 12h", got)
	}
	if got := cfg.Guard.ParsedSweepInterval(); got != 60*time.Second {
		t.Errorf("sweep interval = %v, want 60s", got)
	}
	if len(cfg.Guard.Keywords) != 3 {
		t.Errorf("default keywords = %v", cfg.Guard.Keywords)
	}
	if cfg.UsesPostgres() {
		t.Error("default config should select SQLite")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		// comments are allowed
		discord: {
			command_prefix: "!",
			unlock_role: "helpers",
		},
		guard: {
			lock_duration: "30m",
			digest_cron: "0 9 * * *",
		},
		server: { port: 9000 },
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Discord.CommandPrefix != "!" {
		t.Errorf("prefix = %q, want !", cfg.Discord.CommandPrefix)
	}
	if cfg.Discord.UnlockRole != "helpers" {
		t.Errorf("unlock role = %q, want helpers", cfg.Discord.UnlockRole)
	}
	if got := cfg.Guard.ParsedLockDuration(); got != 30*time.Minute {
		t.Errorf("lock duration = %v, want 30m", got)
	}
	if cfg.Guard.DigestCron != "0 9 * * *" {
		t.Errorf("digest cron = %q", cfg.Guard.DigestCron)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	// Unset fields keep their defaults.
	if cfg.Discord.WatchedBotID != poketwoID {
		t.Errorf("watched bot id lost its default: %q", cfg.Discord.WatchedBotID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() on a missing file should use defaults, got %v", err)
	}
	if cfg.Discord.CommandPrefix != "." {
		t.Errorf("prefix = %q, want default", cfg.Discord.CommandPrefix)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHANLOCK_BOT_TOKEN", "tok-env")
	t.Setenv("CHANLOCK_WATCHED_BOT_ID", "424242")
	t.Setenv("CHANLOCK_POSTGRES_DSN", "postgres://db/chanlock")
	t.Setenv("PORT", "3000")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Discord.Token != "tok-env" {
		t.Errorf("token = %q", cfg.Discord.Token)
	}
	if cfg.Discord.WatchedBotID != "424242" {
		t.Errorf("watched bot id = %q", cfg.Discord.WatchedBotID)
	}
	if !cfg.UsesPostgres() {
		t.Error("DSN in env should select Postgres")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000 from PORT", cfg.Server.Port)
	}
}

func TestBotTokenFallbackEnv(t *testing.T) {
	t.Setenv("CHANLOCK_BOT_TOKEN", "")
	t.Setenv("BOT_TOKEN", "tok-legacy")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Discord.Token != "tok-legacy" {
		t.Errorf("token = %q, want legacy BOT_TOKEN value", cfg.Discord.Token)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("missing token should fail validation")
	}
	cfg.Discord.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	cfg.Discord.WatchedBotID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing watched bot id should fail validation")
	}
}

func TestParseDurationFallback(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 12 * time.Hour},
		{"garbage", 12 * time.Hour},
		{"-5m", 12 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		g := GuardConfig{LockDuration: tt.in}
		if got := g.ParsedLockDuration(); got != tt.want {
			t.Errorf("ParsedLockDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x/y.db"); got != home+"/x/y.db" {
		t.Errorf("ExpandHome(~/x/y.db) = %q", got)
	}
	if got := ExpandHome("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := ExpandHome(""); got != "" {
		t.Errorf("empty path changed: %q", got)
	}
}
