package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/chanlock/internal/channels/discord"
	"github.com/nextlevelbuilder/chanlock/internal/config"
	"github.com/nextlevelbuilder/chanlock/internal/guard"
	"github.com/nextlevelbuilder/chanlock/internal/httpapi"
	"github.com/nextlevelbuilder/chanlock/internal/store"
	"github.com/nextlevelbuilder/chanlock/internal/store/pg"
	"github.com/nextlevelbuilder/chanlock/internal/store/sqlite"
	"github.com/nextlevelbuilder/chanlock/internal/telemetry"
)

func runBot() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// Secrets come from the environment; a local .env is a convenience.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	stores, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}

	channel, err := discord.New(cfg.Discord, stores)
	if err != nil {
		slog.Error("failed to create discord channel", "error", err)
		os.Exit(1)
	}

	matcher := guard.NewMatcher(cfg.Guard.Keywords, stores.Keywords)
	denied := guard.NewDenyList(stores.DenyList)
	if err := denied.Load(ctx); err != nil {
		slog.Error("failed to load deny list", "error", err)
		os.Exit(1)
	}

	svc := guard.NewService(channel, matcher, denied, stores, cfg.Guard.ParsedLockDuration())
	channel.SetService(svc)

	// The durable store is authoritative at startup: memory is rebuilt from
	// it, and the sweeper's immediate reconcile expires anything that lapsed
	// while the process was down.
	if err := svc.Load(ctx); err != nil {
		slog.Error("failed to load persisted locks", "error", err)
		os.Exit(1)
	}

	sweeper, err := guard.NewSweeper(svc, stores, channel, cfg.Guard.ParsedSweepInterval(), cfg.Guard.DigestCron)
	if err != nil {
		slog.Error("failed to create sweeper", "error", err)
		os.Exit(1)
	}

	if err := channel.Start(ctx); err != nil {
		slog.Error("failed to start discord bot", "error", err)
		os.Exit(1)
	}
	defer channel.Stop(context.Background())

	liveness := httpapi.NewServer(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(ctx) })
	g.Go(func() error { return liveness.Run(ctx) })

	if err := g.Wait(); err != nil {
		slog.Error("bot stopped with error", "error", err)
		shutdownTelemetry(context.Background())
		os.Exit(1)
	}

	if err := shutdownTelemetry(context.Background()); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}
	slog.Info("bot stopped")
}

// openStores picks the storage backend: Postgres when a DSN is configured,
// otherwise the embedded SQLite database.
func openStores(cfg *config.Config) (*store.Stores, error) {
	if cfg.UsesPostgres() {
		slog.Info("using postgres store")
		return pg.Open(cfg.Database.PostgresDSN)
	}
	path := config.ExpandHome(cfg.Database.SQLitePath)
	slog.Info("using sqlite store", "path", path)
	return sqlite.Open(path)
}
