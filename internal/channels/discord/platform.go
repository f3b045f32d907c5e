package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/chanlock/internal/guard"
)

// Embed colors, matching the original deployment's notices.
const (
	colorRed   = 0xe74c3c
	colorGreen = 0x2ecc71
	colorGold  = 0xf1c40f
)

// unlockCustomID tags the unlock button with its channel so one interaction
// handler can dispatch every button.
const unlockCustomIDPrefix = "unlock:"

// Lock denies the watched account's view/send access to the channel.
func (c *Channel) Lock(_ context.Context, guildID, channelID string) error {
	if _, err := c.session.GuildMember(guildID, c.cfg.WatchedBotID); err != nil {
		if isUnknownMember(err) {
			return guard.ErrMemberNotFound
		}
		return fmt.Errorf("resolve watched account: %w", err)
	}

	deny := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	if err := c.session.ChannelPermissionSet(
		channelID, c.cfg.WatchedBotID, discordgo.PermissionOverwriteTypeMember, 0, deny,
	); err != nil {
		return fmt.Errorf("set permission overwrite: %w", err)
	}
	return nil
}

// Unlock removes the permission overwrite applied by Lock.
func (c *Channel) Unlock(_ context.Context, _, channelID string) error {
	if err := c.session.ChannelPermissionDelete(channelID, c.cfg.WatchedBotID); err != nil {
		return fmt.Errorf("delete permission overwrite: %w", err)
	}
	return nil
}

// NotifyLocked posts the locked embed with the unlock button.
func (c *Channel) NotifyLocked(_ context.Context, channelID string, until time.Time) error {
	embed := &discordgo.MessageEmbed{
		Title:       "🔒 Channel Locked",
		Description: fmt.Sprintf("This channel is locked until <t:%d:f> (<t:%d:R>).", until.Unix(), until.Unix()),
		Color:       colorRed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Use the unlock button or %sunlock.", c.cfg.CommandPrefix),
		},
	}

	_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Unlock Channel",
						Style:    discordgo.SuccessButton,
						CustomID: unlockCustomIDPrefix + channelID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send locked notice: %w", err)
	}
	return nil
}

// NotifyUnlocked posts the unlocked embed naming the actor.
func (c *Channel) NotifyUnlocked(_ context.Context, channelID string, actor guard.Actor) error {
	description := "Unlocked automatically."
	if !actor.IsSystem() {
		description = fmt.Sprintf("Unlocked by <@%s>.", actor.ID)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🔓 Channel Unlocked",
		Description: description,
		Color:       colorGreen,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		return fmt.Errorf("send unlocked notice: %w", err)
	}
	return nil
}

// SendMessage posts a plain text message.
func (c *Channel) SendMessage(_ context.Context, channelID, content string) error {
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// isUnknownMember reports whether err is the REST error for a user that is
// not a member of the guild.
func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember
}
