// Package pg implements the chanlock stores on Postgres (managed mode).
// The schema is managed out-of-process via `chanlock migrate up`.
package pg

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// Open connects to Postgres and returns the full store set backed by it.
func Open(dsn string) (*store.Stores, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
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
