package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// DenyListStore implements store.DenyListStore backed by Postgres.
type DenyListStore struct {
	db *sql.DB
}

func (s *DenyListStore) AddChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO denylist_channels (channel_id) VALUES ($1) ON CONFLICT DO NOTHING`, channelID)
	return err
}

func (s *DenyListStore) RemoveChannel(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM denylist_channels WHERE channel_id = $1`, channelID)
	return err
}

func (s *DenyListStore) ListChannels(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, `SELECT channel_id FROM denylist_channels ORDER BY channel_id`)
}

func (s *DenyListStore) AddGuild(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO denylist_guilds (guild_id) VALUES ($1) ON CONFLICT DO NOTHING`, guildID)
	return err
}

func (s *DenyListStore) RemoveGuild(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM denylist_guilds WHERE guild_id = $1`, guildID)
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

// KeywordStore implements store.KeywordStore backed by Postgres.
type KeywordStore struct {
	db *sql.DB
}

func (s *KeywordStore) SetKeyword(ctx context.Context, guildID, keyword string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keyword_toggles (guild_id, keyword, enabled) VALUES ($1, $2, $3)
		 ON CONFLICT (guild_id, keyword) DO UPDATE SET enabled = EXCLUDED.enabled`,
		guildID, keyword, enabled)
	return err
}

func (s *KeywordStore) LoadKeywords(ctx context.Context, guildID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, enabled FROM keyword_toggles WHERE guild_id = $1`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	toggles := make(map[string]bool)
	for rows.Next() {
		var kw string
		var enabled bool
		if err := rows.Scan(&kw, &enabled); err != nil {
			return nil, err
		}
		toggles[kw] = enabled
	}
	return toggles, rows.Err()
}

// TargetStore implements store.TargetStore backed by Postgres.
type TargetStore struct {
	db *sql.DB
}

func (s *TargetStore) SetTarget(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notify_targets (guild_id, channel_id) VALUES ($1, $2)
		 ON CONFLICT (guild_id) DO UPDATE SET channel_id = EXCLUDED.channel_id`,
		guildID, channelID)
	return err
}

func (s *TargetStore) GetTarget(ctx context.Context, guildID string) (string, error) {
	var channelID string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM notify_targets WHERE guild_id = $1`, guildID).Scan(&channelID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// RestrictionStore implements store.RestrictionStore backed by Postgres.
type RestrictionStore struct {
	db *sql.DB
}

func (s *RestrictionStore) Put(ctx context.Context, r store.Restriction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restrictions (channel_id, guild_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id) DO UPDATE SET guild_id = EXCLUDED.guild_id, expires_at = EXCLUDED.expires_at`,
		r.ChannelID, r.GuildID, r.ExpiresAt.UTC())
	return err
}

func (s *RestrictionStore) Delete(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM restrictions WHERE channel_id = $1`, channelID)
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
		if err := rows.Scan(&r.ChannelID, &r.GuildID, &r.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventStore implements store.EventStore backed by Postgres.
type EventStore struct {
	db *sql.DB
}

func (s *EventStore) Append(ctx context.Context, ev store.AuditEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lock_events (id, guild_id, channel_id, action, actor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.GuildID, ev.ChannelID, ev.Action, ev.Actor, ev.CreatedAt.UTC())
	return err
}

func (s *EventStore) ListSince(ctx context.Context, since time.Time) ([]store.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, channel_id, action, actor, created_at
		 FROM lock_events WHERE created_at >= $1 ORDER BY created_at`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.AuditEvent
	for rows.Next() {
		var ev store.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.GuildID, &ev.ChannelID, &ev.Action, &ev.Actor, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
