package guard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// Matcher decides whether a message text contains an enabled trigger phrase.
// Keyword toggles are per guild; a guild with no persisted toggles uses the
// default set with every keyword enabled.
type Matcher struct {
	mu       sync.Mutex
	defaults []string
	store    store.KeywordStore
	guilds   map[string]map[string]bool // guildID → keyword → enabled
}

// NewMatcher creates a Matcher with the given default keywords.
// Keywords are matched case-insensitively; defaults are folded here once.
func NewMatcher(defaults []string, kw store.KeywordStore) *Matcher {
	folded := make([]string, 0, len(defaults))
	for _, k := range defaults {
		folded = append(folded, strings.ToLower(k))
	}
	return &Matcher{
		defaults: folded,
		store:    kw,
		guilds:   make(map[string]map[string]bool),
	}
}

// Matches reports whether text contains at least one enabled keyword for the
// guild as a substring. Empty text never matches.
func (m *Matcher) Matches(ctx context.Context, guildID, text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)

	for kw, enabled := range m.Keywords(ctx, guildID) {
		if enabled && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Toggle enables or disables a keyword for a guild and persists the change.
// The keyword must be one of the configured defaults.
func (m *Matcher) Toggle(ctx context.Context, guildID, keyword string, enabled bool) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	known := false
	for _, k := range m.defaults {
		if k == keyword {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown keyword %q", keyword)
	}

	if err := m.store.SetKeyword(ctx, guildID, keyword, enabled); err != nil {
		return fmt.Errorf("persist keyword toggle: %w", err)
	}

	m.ensureGuild(ctx, guildID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.guilds[guildID][keyword] = enabled
	return nil
}

// Keywords returns a copy of the guild's keyword toggle state, loading
// persisted toggles on first sight of the guild.
func (m *Matcher) Keywords(ctx context.Context, guildID string) map[string]bool {
	m.ensureGuild(ctx, guildID)

	m.mu.Lock()
	defer m.mu.Unlock()
	kws := m.guilds[guildID]
	out := make(map[string]bool, len(kws))
	for k, v := range kws {
		out[k] = v
	}
	return out
}

// ensureGuild populates the cache for a guild from the store if absent.
func (m *Matcher) ensureGuild(ctx context.Context, guildID string) {
	m.mu.Lock()
	_, ok := m.guilds[guildID]
	m.mu.Unlock()
	if ok {
		return
	}

	kws := make(map[string]bool, len(m.defaults))
	for _, k := range m.defaults {
		kws[k] = true
	}
	if m.store != nil {
		// Unknown persisted keywords are ignored: the toggle surface only
		// covers the configured defaults.
		if persisted, err := m.store.LoadKeywords(ctx, guildID); err == nil {
			for k, v := range persisted {
				if _, known := kws[k]; known {
					kws[k] = v
				}
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.guilds[guildID]; !ok {
		m.guilds[guildID] = kws
	}
}
