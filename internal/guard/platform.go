package guard

import (
	"context"
	"errors"
	"time"
)

// ErrMemberNotFound is returned by Platform.Lock when the watched automated
// account cannot be resolved in the channel's guild. The lock is aborted
// without mutating any state.
var ErrMemberNotFound = errors.New("watched account is not a member of the guild")

// Actor identifies who performed a lock or release. The zero ID marks the
// system actor (automatic expiry).
type Actor struct {
	ID   string // platform user ID, empty for the system
	Name string
}

// SystemActor is used for releases performed by the expiry sweep.
var SystemActor = Actor{Name: "system"}

// TriggerActor is used for locks created by a matching trigger message.
var TriggerActor = Actor{Name: "trigger"}

// IsSystem reports whether the actor is the bot itself rather than a user.
func (a Actor) IsSystem() bool { return a.ID == "" }

// Display returns a human-readable actor label for logs and audit rows.
func (a Actor) Display() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Platform is the chat-platform collaborator boundary. The engine drives
// permission changes and notices through it and never touches the chat SDK
// directly.
type Platform interface {
	// Lock denies the watched account's view/send access to the channel.
	// Returns ErrMemberNotFound when the account is not in the guild.
	Lock(ctx context.Context, guildID, channelID string) error

	// Unlock reverts the permission overwrite applied by Lock.
	Unlock(ctx context.Context, guildID, channelID string) error

	// NotifyLocked posts the locked notice with an unlock affordance.
	NotifyLocked(ctx context.Context, channelID string, until time.Time) error

	// NotifyUnlocked posts the unlocked notice naming the actor.
	NotifyUnlocked(ctx context.Context, channelID string, actor Actor) error

	// SendMessage posts a plain message (digest, reports).
	SendMessage(ctx context.Context, channelID, content string) error
}
