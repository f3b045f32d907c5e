package store

import (
	"fmt"
	"io"
)

// Stores is the top-level container for all storage backends.
// Both backends implement every store; the split mirrors the
// standalone (SQLite) vs managed (Postgres) deployment modes.
type Stores struct {
	DenyList     DenyListStore
	Keywords     KeywordStore
	Targets      TargetStore
	Restrictions RestrictionStore
	Events       EventStore

	closer io.Closer
}

// NewStores bundles the individual stores with the backing handle to close.
func NewStores(deny DenyListStore, kw KeywordStore, tg TargetStore, rs RestrictionStore, ev EventStore, closer io.Closer) *Stores {
	return &Stores{
		DenyList:     deny,
		Keywords:     kw,
		Targets:      tg,
		Restrictions: rs,
		Events:       ev,
		closer:       closer,
	}
}

// Close releases the underlying database handle.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
