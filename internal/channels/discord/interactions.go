package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/chanlock/internal/guard"
)

// handleInteraction serves unlock button clicks. The button's custom ID
// carries the channel, so a single handler covers every rendered button.
func (c *Channel) handleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, unlockCustomIDPrefix) {
		return
	}
	channelID := strings.TrimPrefix(customID, unlockCustomIDPrefix)

	// Component interactions outside a guild carry no member; nothing to do.
	if i.Member == nil || i.Member.User == nil {
		return
	}
	user := i.Member.User

	if !c.hasUnlockRole(i.GuildID, i.Member) {
		c.respondEphemeral(i, fmt.Sprintf(
			"You don't have the %q role to unlock this channel. Use `%sunlock` instead.",
			c.cfg.UnlockRole, c.cfg.CommandPrefix))
		return
	}

	actor := guard.Actor{ID: user.ID, Name: memberDisplayName(i.Member, user)}
	released, err := c.svc.Release(context.Background(), channelID, actor)
	switch {
	case err != nil:
		slog.Warn("button unlock failed", "channel_id", channelID, "error", err)
		c.respondEphemeral(i, "Could not unlock the channel: "+userFacing(err))
	case !released:
		c.respondEphemeral(i, "Channel is not locked anymore.")
	default:
		c.respondEphemeral(i, "Channel unlocked!")
	}
}

// hasUnlockRole reports whether the member holds the configured unlock role.
func (c *Channel) hasUnlockRole(guildID string, member *discordgo.Member) bool {
	roles, err := c.session.GuildRoles(guildID)
	if err != nil {
		slog.Warn("guild role lookup failed", "guild_id", guildID, "error", err)
		return false
	}

	var unlockRoleID string
	for _, role := range roles {
		if strings.EqualFold(role.Name, c.cfg.UnlockRole) {
			unlockRoleID = role.ID
			break
		}
	}
	if unlockRoleID == "" {
		return false
	}

	for _, id := range member.Roles {
		if id == unlockRoleID {
			return true
		}
	}
	return false
}

// respondEphemeral answers an interaction with a message only the clicking
// user can see.
func (c *Channel) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("interaction response failed", "error", err)
	}
}
