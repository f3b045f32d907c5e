package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Restriction is an active channel lock with its absolute expiry.
type Restriction struct {
	ChannelID string
	GuildID   string
	ExpiresAt time.Time
}

// AuditEvent records one lock or release for the activity digest.
type AuditEvent struct {
	ID        uuid.UUID
	GuildID   string
	ChannelID string
	Action    string // "lock" or "release"
	Actor     string
	CreatedAt time.Time
}

const (
	ActionLock    = "lock"
	ActionRelease = "release"
)

// DenyListStore persists channels and guilds exempt from automatic locking.
// Adds are insert-or-ignore, removes delete-if-present.
type DenyListStore interface {
	AddChannel(ctx context.Context, channelID string) error
	RemoveChannel(ctx context.Context, channelID string) error
	ListChannels(ctx context.Context) ([]string, error)
	AddGuild(ctx context.Context, guildID string) error
	RemoveGuild(ctx context.Context, guildID string) error
	ListGuilds(ctx context.Context) ([]string, error)
}

// KeywordStore persists per-guild trigger keyword toggles.
// A guild with no rows uses the built-in defaults (all enabled).
type KeywordStore interface {
	SetKeyword(ctx context.Context, guildID, keyword string, enabled bool) error
	LoadKeywords(ctx context.Context, guildID string) (map[string]bool, error)
}

// TargetStore persists the per-guild notification channel.
// Setting a target replaces any previous one (single row per guild).
type TargetStore interface {
	SetTarget(ctx context.Context, guildID, channelID string) error
	// GetTarget returns "" when no target is configured for the guild.
	GetTarget(ctx context.Context, guildID string) (string, error)
}

// RestrictionStore persists active lock timers for crash recovery.
type RestrictionStore interface {
	Put(ctx context.Context, r Restriction) error
	Delete(ctx context.Context, channelID string) error
	List(ctx context.Context) ([]Restriction, error)
}

// EventStore persists the lock/release audit trail.
type EventStore interface {
	Append(ctx context.Context, ev AuditEvent) error
	ListSince(ctx context.Context, since time.Time) ([]AuditEvent, error)
}
