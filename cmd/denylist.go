package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chanlock/internal/config"
	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// denylistCmd manages the deny lists directly against the store, for
// maintenance while the bot is offline.
func denylistCmd() *cobra.Command {
	var guildScope bool

	cmd := &cobra.Command{
		Use:   "denylist",
		Short: "Manage deny-listed channels and guilds",
	}
	cmd.PersistentFlags().BoolVar(&guildScope, "guild", false, "operate on the guild deny list instead of channels")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List deny-listed IDs",
		Run: func(cmd *cobra.Command, args []string) {
			withStores(func(ctx context.Context, st *store.Stores) error {
				var ids []string
				var err error
				if guildScope {
					ids, err = st.DenyList.ListGuilds(ctx)
				} else {
					ids, err = st.DenyList.ListChannels(ctx)
				}
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Add an ID to the deny list",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withStores(func(ctx context.Context, st *store.Stores) error {
				if guildScope {
					return st.DenyList.AddGuild(ctx, args[0])
				}
				return st.DenyList.AddChannel(ctx, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an ID from the deny list",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withStores(func(ctx context.Context, st *store.Stores) error {
				if guildScope {
					return st.DenyList.RemoveGuild(ctx, args[0])
				}
				return st.DenyList.RemoveChannel(ctx, args[0])
			})
		},
	})

	return cmd
}

// withStores opens the configured store, runs fn and exits non-zero on error.
func withStores(fn func(context.Context, *store.Stores) error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	stores, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	if err := fn(context.Background(), stores); err != nil {
		slog.Error("denylist operation failed", "error", err)
		os.Exit(1)
	}
}
