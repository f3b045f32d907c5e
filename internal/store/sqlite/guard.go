package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// timeLayout is RFC 3339 with a fixed-width nanosecond fraction. Timestamps
// are compared and ordered as text in SQL, so the fraction must never shrink:
// a trimmed fraction makes lexical order diverge from chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DenyListStore implements store.DenyListStore on SQLite.
type DenyListStore struct {
	db *sql.DB
}

func (s *DenyListStore) AddChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO denylist_channels (channel_id) VALUES (?)`, channelID)
	return err
}

func (s *DenyListStore) RemoveChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM denylist_channels WHERE channel_id = ?`, channelID)
	return err
}

func (s *DenyListStore) ListChannels(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, `SELECT channel_id FROM denylist_channels ORDER BY channel_id`)
}

func (s *DenyListStore) AddGuild(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO denylist_guilds (guild_id) VALUES (?)`, guildID)
	return err
}

func (s *DenyListStore) RemoveGuild(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM denylist_guilds WHERE guild_id = ?`, guildID)
	return err
}

func (s *DenyListStore) ListGuilds(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, `SELECT guild_id FROM denylist_guilds ORDER BY guild_id`)
}

func (s *DenyListStore) listIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// KeywordStore implements store.KeywordStore on SQLite.
type KeywordStore struct {
	db *sql.DB
}

func (s *KeywordStore) SetKeyword(ctx context.Context, guildID, keyword string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keyword_toggles (guild_id, keyword, enabled) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, keyword) DO UPDATE SET enabled = excluded.enabled`,
		guildID, keyword, boolToInt(enabled))
	return err
}

func (s *KeywordStore) LoadKeywords(ctx context.Context, guildID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, enabled FROM keyword_toggles WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	toggles := make(map[string]bool)
	for rows.Next() {
		var kw string
		var enabled int
		if err := rows.Scan(&kw, &enabled); err != nil {
			return nil, err
		}
		toggles[kw] = enabled != 0
	}
	return toggles, rows.Err()
}

// TargetStore implements store.TargetStore on SQLite.
type TargetStore struct {
	db *sql.DB
}

func (s *TargetStore) SetTarget(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notify_targets (guild_id, channel_id) VALUES (?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET channel_id = excluded.channel_id`,
		guildID, channelID)
	return err
}

func (s *TargetStore) GetTarget(ctx context.Context, guildID string) (string, error) {
	var channelID string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM notify_targets WHERE guild_id = ?`, guildID).Scan(&channelID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// RestrictionStore implements store.RestrictionStore on SQLite.
// Expiries are stored as RFC 3339 text so rows stay readable in the db shell.
type RestrictionStore struct {
	db *sql.DB
}

func (s *RestrictionStore) Put(ctx context.Context, r store.Restriction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restrictions (channel_id, guild_id, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET guild_id = excluded.guild_id, expires_at = excluded.expires_at`,
		r.ChannelID, r.GuildID, r.ExpiresAt.UTC().Format(timeLayout))
	return err
}

func (s *RestrictionStore) Delete(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM restrictions WHERE channel_id = ?`, channelID)
	return err
}

func (s *RestrictionStore) List(ctx context.Context) ([]store.Restriction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id, guild_id, expires_at FROM restrictions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Restriction
	for rows.Next() {
		var r store.Restriction
		var expiresAt string
		if err := rows.Scan(&r.ChannelID, &r.GuildID, &expiresAt); err != nil {
			return nil, err
		}
		r.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("parse expiry for channel %s: %w", r.ChannelID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventStore implements store.EventStore on SQLite.
type EventStore struct {
	db *sql.DB
}

func (s *EventStore) Append(ctx context.Context, ev store.AuditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lock_events (id, guild_id, channel_id, action, actor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID.String(), ev.GuildID, ev.ChannelID, ev.Action, ev.Actor,
		ev.CreatedAt.UTC().Format(timeLayout))
	return err
}

func (s *EventStore) ListSince(ctx context.Context, since time.Time) ([]store.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, channel_id, action, actor, created_at
		 FROM lock_events WHERE created_at >= ? ORDER BY created_at`,
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.AuditEvent
	for rows.Next() {
		var ev store.AuditEvent
		var id, createdAt string
		if err := rows.Scan(&id, &ev.GuildID, &ev.ChannelID, &ev.Action, &ev.Actor, &createdAt); err != nil {
			return nil, err
		}
		ev.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse event id %q: %w", id, err)
		}
		ev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp %q: %w", createdAt, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
