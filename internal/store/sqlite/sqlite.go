// Package sqlite implements the chanlock stores on an embedded SQLite
// database. This is the standalone-mode backend: the schema is bootstrapped
// in-process, no external migration step is required.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS denylist_channels (
	channel_id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS denylist_guilds (
	guild_id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS keyword_toggles (
	guild_id TEXT NOT NULL,
	keyword  TEXT NOT NULL,
	enabled  INTEGER NOT NULL,
	PRIMARY KEY (guild_id, keyword)
);
CREATE TABLE IF NOT EXISTS notify_targets (
	guild_id   TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS restrictions (
	channel_id TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	expires_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS lock_events (
	id         TEXT PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	action     TEXT NOT NULL,
	actor      TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lock_events_created_at ON lock_events(created_at);
`

// Open opens (creating if needed) the SQLite database at path and returns
// the full store set backed by it.
func Open(path string) (*store.Stores, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer; serialize access through a single connection
	// so concurrent handler goroutines queue instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return store.NewStores(
		&DenyListStore{db: db},
		&KeywordStore{db: db},
		&TargetStore{db: db},
		&RestrictionStore{db: db},
		&EventStore{db: db},
		db,
	), nil
}
