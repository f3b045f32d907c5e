// Package discord connects the lock engine to Discord via the Bot API
// gateway. It delivers inbound messages to the engine, serves the prefix
// command surface and the unlock button, and implements guard.Platform for
// permission overwrites and notices.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/chanlock/internal/config"
	"github.com/nextlevelbuilder/chanlock/internal/guard"
	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// shinyAnnouncement is the phrase the watched account posts when a shiny
// spawn is caught; it earns a congratulations embed, nothing more.
const shinyAnnouncement = "These colors seem unusual... ✨"

// congratsInterval throttles congratulations embeds per channel so a burst
// of announcements doesn't flood the room.
const congratsInterval = 30 * time.Second

// Channel connects to Discord and bridges events into the guard engine.
type Channel struct {
	session   *discordgo.Session
	cfg       config.DiscordConfig
	svc       *guard.Service
	stores    *store.Stores
	botUserID string   // populated on start
	congrats  sync.Map // channelID string → *rate.Limiter
}

// New creates the Discord channel from config. The guard service is wired in
// afterwards via SetService so the service can hold the channel as its
// Platform without a constructor cycle.
func New(cfg config.DiscordConfig, st *store.Stores) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		session: session,
		cfg:     cfg,
		stores:  st,
	}, nil
}

// SetService wires the guard engine into the event handlers.
func (c *Channel) SetService(svc *guard.Service) { c.svc = svc }

// Start opens the gateway connection and begins receiving events.
func (c *Channel) Start(_ context.Context) error {
	slog.Info("starting discord bot")

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID

	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	return c.session.Close()
}

// handleMessage processes incoming Discord messages: congratulations for
// shiny announcements, the prefix command surface for humans, and the
// trigger pipeline for automated authors.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botUserID {
		return
	}

	ctx := context.Background()

	if m.Author.ID == c.cfg.WatchedBotID && strings.Contains(m.Content, shinyAnnouncement) {
		c.sendCongrats(m.ChannelID, m.Author.Mention())
	}

	if !m.Author.Bot && strings.HasPrefix(m.Content, c.cfg.CommandPrefix) {
		c.handleCommand(ctx, m)
		return
	}

	c.svc.HandleMessage(ctx, guard.Message{
		AuthorID:    m.Author.ID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
	})
}

// sendCongrats posts the shiny congratulations embed, throttled per channel.
func (c *Channel) sendCongrats(channelID, mention string) {
	limAny, _ := c.congrats.LoadOrStore(channelID, rate.NewLimiter(rate.Every(congratsInterval), 1))
	if !limAny.(*rate.Limiter).Allow() {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎉 Congratulations! 🎉",
		Description: fmt.Sprintf("%s has found a shiny Pokémon!", mention),
		Color:       colorGold,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Keep hunting for more rare Pokémon!"},
	}
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		slog.Warn("congratulations embed failed", "channel_id", channelID, "error", err)
	}
}

// memberDisplayName returns the best available display name for a member.
// Priority: server nickname > global display name > username.
func memberDisplayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
