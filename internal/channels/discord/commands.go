package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/chanlock/internal/guard"
)

// handleCommand dispatches a prefix command from a human user. Unknown
// commands are ignored so ordinary punctuation doesn't trigger replies.
func (c *Channel) handleCommand(ctx context.Context, m *discordgo.MessageCreate) {
	cmd, args := parseCommand(m.Content, c.cfg.CommandPrefix)
	if cmd == "" {
		return
	}

	actor := guard.Actor{
		ID:   m.Author.ID,
		Name: memberDisplayName(m.Member, m.Author),
	}

	switch cmd {
	case "help":
		c.reply(m.ChannelID, helpText(c.cfg.CommandPrefix))

	case "lock":
		if !c.requireManageChannels(m) {
			return
		}
		// Manual lock bypasses the deny list: an operator can always act.
		expiry, created, err := c.svc.Restrict(ctx, m.ChannelID, m.GuildID, actor)
		switch {
		case err != nil:
			slog.Warn("manual lock failed", "channel_id", m.ChannelID, "error", err)
			c.reply(m.ChannelID, "Could not lock this channel: "+userFacing(err))
		case !created:
			c.reply(m.ChannelID, fmt.Sprintf("Channel is already locked; unlocks <t:%d:R>.", expiry.Unix()))
		}
		// The locked notice itself is posted by the engine.

	case "unlock":
		if !c.requireManageChannels(m) {
			return
		}
		released, err := c.svc.Release(ctx, m.ChannelID, actor)
		switch {
		case err != nil:
			slog.Warn("manual unlock failed", "channel_id", m.ChannelID, "error", err)
			c.reply(m.ChannelID, "Could not unlock this channel: "+userFacing(err))
		case !released:
			c.reply(m.ChannelID, "Channel is not locked.")
		}

	case "check_timer", "timer":
		remaining, locked := c.svc.Remaining(m.ChannelID)
		if !locked {
			c.reply(m.ChannelID, "Channel is not locked.")
			return
		}
		mins := int(remaining.Minutes())
		c.reply(m.ChannelID, fmt.Sprintf("Unlocks in %d minute(s).", mins))

	case "blacklist":
		c.handleBlacklist(ctx, m, args)

	case "guildblacklist":
		c.handleGuildBlacklist(ctx, m, args)

	case "keyword", "keywords":
		c.handleKeyword(ctx, m, args)

	case "notifychannel":
		if !c.requireManageChannels(m) {
			return
		}
		if err := c.stores.Targets.SetTarget(ctx, m.GuildID, m.ChannelID); err != nil {
			slog.Warn("notify target update failed", "guild_id", m.GuildID, "error", err)
			c.reply(m.ChannelID, "Could not save the notification channel.")
			return
		}
		c.reply(m.ChannelID, "Lock notifications for this server will be posted here.")
	}
}

// handleBlacklist serves `blacklist add|remove|list`. Add/remove take a
// channel mention or ID and default to the current channel.
func (c *Channel) handleBlacklist(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		c.reply(m.ChannelID, fmt.Sprintf(
			"Use `%sblacklist add`, `%sblacklist remove`, or `%sblacklist list`.",
			c.cfg.CommandPrefix, c.cfg.CommandPrefix, c.cfg.CommandPrefix))
		return
	}

	switch args[0] {
	case "add", "remove":
		if !c.requireManageChannels(m) {
			return
		}
		channelID := m.ChannelID
		if len(args) > 1 {
			id, ok := parseChannelArg(args[1])
			if !ok {
				c.reply(m.ChannelID, "That doesn't look like a channel. Use a #mention or a channel ID.")
				return
			}
			channelID = id
		}

		var err error
		var verb string
		if args[0] == "add" {
			err = c.svc.DenyList().AddChannel(ctx, channelID)
			verb = "added to"
		} else {
			err = c.svc.DenyList().RemoveChannel(ctx, channelID)
			verb = "removed from"
		}
		if err != nil {
			slog.Warn("deny list update failed", "channel_id", channelID, "error", err)
			c.reply(m.ChannelID, "Could not update the blacklist.")
			return
		}
		c.reply(m.ChannelID, fmt.Sprintf("<#%s> %s the blacklist.", channelID, verb))

	case "list":
		channels := c.svc.DenyList().Channels()
		if len(channels) == 0 {
			c.reply(m.ChannelID, "No blacklisted channels.")
			return
		}
		sort.Strings(channels)
		mentions := make([]string, 0, len(channels))
		for _, id := range channels {
			mentions = append(mentions, "<#"+id+">")
		}
		c.reply(m.ChannelID, strings.Join(mentions, "\n"))

	default:
		c.reply(m.ChannelID, fmt.Sprintf(
			"Use `%sblacklist add`, `%sblacklist remove`, or `%sblacklist list`.",
			c.cfg.CommandPrefix, c.cfg.CommandPrefix, c.cfg.CommandPrefix))
	}
}

// handleGuildBlacklist serves `guildblacklist add|remove` for the current guild.
func (c *Channel) handleGuildBlacklist(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 || (args[0] != "add" && args[0] != "remove") {
		c.reply(m.ChannelID, fmt.Sprintf(
			"Use `%sguildblacklist add` or `%sguildblacklist remove`.",
			c.cfg.CommandPrefix, c.cfg.CommandPrefix))
		return
	}
	if !c.requireManageChannels(m) {
		return
	}

	var err error
	var text string
	if args[0] == "add" {
		err = c.svc.DenyList().AddGuild(ctx, m.GuildID)
		text = "Automatic locking is now disabled for this entire server."
	} else {
		err = c.svc.DenyList().RemoveGuild(ctx, m.GuildID)
		text = "Automatic locking is enabled again for this server."
	}
	if err != nil {
		slog.Warn("guild deny list update failed", "guild_id", m.GuildID, "error", err)
		c.reply(m.ChannelID, "Could not update the server blacklist.")
		return
	}
	c.reply(m.ChannelID, text)
}

// handleKeyword serves `keyword list|on|off <phrase>`.
func (c *Channel) handleKeyword(ctx context.Context, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 || args[0] == "list" {
		kws := c.svc.Matcher().Keywords(ctx, m.GuildID)
		names := make([]string, 0, len(kws))
		for k := range kws {
			names = append(names, k)
		}
		sort.Strings(names)
		var b strings.Builder
		b.WriteString("Trigger keywords:\n")
		for _, k := range names {
			state := "off"
			if kws[k] {
				state = "on"
			}
			fmt.Fprintf(&b, "• `%s` — %s\n", k, state)
		}
		c.reply(m.ChannelID, b.String())
		return
	}

	if args[0] != "on" && args[0] != "off" {
		c.reply(m.ChannelID, fmt.Sprintf(
			"Use `%skeyword list`, `%skeyword on <phrase>`, or `%skeyword off <phrase>`.",
			c.cfg.CommandPrefix, c.cfg.CommandPrefix, c.cfg.CommandPrefix))
		return
	}
	if !c.requireManageChannels(m) {
		return
	}
	if len(args) < 2 {
		c.reply(m.ChannelID, "Which keyword? Example: `keyword off rare ping`")
		return
	}

	phrase := strings.Join(args[1:], " ")
	enabled := args[0] == "on"
	if err := c.svc.Matcher().Toggle(ctx, m.GuildID, phrase, enabled); err != nil {
		c.reply(m.ChannelID, userFacing(err))
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.reply(m.ChannelID, fmt.Sprintf("Keyword `%s` %s for this server.", strings.ToLower(phrase), state))
}

// requireManageChannels checks the Manage Channels permission and reports a
// denial back to the user. Returns true when the command may proceed.
func (c *Channel) requireManageChannels(m *discordgo.MessageCreate) bool {
	perms, err := c.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		slog.Warn("permission lookup failed",
			"user_id", m.Author.ID, "channel_id", m.ChannelID, "error", err)
		c.reply(m.ChannelID, "Could not verify your permissions, try again.")
		return false
	}
	if perms&discordgo.PermissionManageChannels == 0 {
		c.reply(m.ChannelID, "You need the Manage Channels permission for that.")
		return false
	}
	return true
}

// reply sends a plain reply, logging instead of failing the handler.
func (c *Channel) reply(channelID, content string) {
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		slog.Warn("command reply failed", "channel_id", channelID, "error", err)
	}
}

// parseCommand splits "<prefix>cmd arg arg" into the lower-cased command and
// its arguments. Returns "" when content is just the prefix or not a command.
func parseCommand(content, prefix string) (string, []string) {
	body := strings.TrimPrefix(content, prefix)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// parseChannelArg accepts a channel mention ("<#123>") or a bare ID.
func parseChannelArg(arg string) (string, bool) {
	if strings.HasPrefix(arg, "<#") && strings.HasSuffix(arg, ">") {
		arg = arg[2 : len(arg)-1]
	}
	if arg == "" {
		return "", false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return arg, true
}

// userFacing trims wrapped error chains down to something safe to show.
func userFacing(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		msg = msg[idx+2:]
	}
	return msg
}

func helpText(prefix string) string {
	return "Available commands:\n" +
		prefix + "lock — lock this channel (Manage Channels)\n" +
		prefix + "unlock — unlock this channel (Manage Channels)\n" +
		prefix + "check_timer — time until this channel unlocks\n" +
		prefix + "blacklist add|remove|list — exempt channels from auto-lock\n" +
		prefix + "guildblacklist add|remove — exempt this whole server\n" +
		prefix + "keyword list|on|off <phrase> — manage trigger keywords\n" +
		prefix + "notifychannel — post lock digests to this channel"
}
