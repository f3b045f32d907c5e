package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// DenyList is the in-memory mirror of the persisted deny lists. A channel on
// the list, or any channel in a listed guild, is never locked automatically.
// Mutations write through to the store before updating the mirror.
type DenyList struct {
	mu       sync.Mutex
	store    store.DenyListStore
	channels map[string]struct{}
	guilds   map[string]struct{}
}

// NewDenyList creates an empty deny list backed by st. Call Load before use.
func NewDenyList(st store.DenyListStore) *DenyList {
	return &DenyList{
		store:    st,
		channels: make(map[string]struct{}),
		guilds:   make(map[string]struct{}),
	}
}

// Load replaces the mirror with the persisted deny lists.
func (d *DenyList) Load(ctx context.Context) error {
	channels, err := d.store.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("load channel deny list: %w", err)
	}
	guilds, err := d.store.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("load guild deny list: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels = make(map[string]struct{}, len(channels))
	for _, id := range channels {
		d.channels[id] = struct{}{}
	}
	d.guilds = make(map[string]struct{}, len(guilds))
	for _, id := range guilds {
		d.guilds[id] = struct{}{}
	}
	return nil
}

// Suppressed reports whether automatic locking is suppressed for the channel.
func (d *DenyList) Suppressed(channelID, guildID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[channelID]; ok {
		return true
	}
	if guildID != "" {
		if _, ok := d.guilds[guildID]; ok {
			return true
		}
	}
	return false
}

// AddChannel puts a channel on the deny list.
func (d *DenyList) AddChannel(ctx context.Context, channelID string) error {
	if err := d.store.AddChannel(ctx, channelID); err != nil {
		return fmt.Errorf("persist deny list add: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[channelID] = struct{}{}
	return nil
}

// RemoveChannel takes a channel off the deny list.
func (d *DenyList) RemoveChannel(ctx context.Context, channelID string) error {
	if err := d.store.RemoveChannel(ctx, channelID); err != nil {
		return fmt.Errorf("persist deny list remove: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.channels, channelID)
	return nil
}

// AddGuild puts a whole guild on the deny list.
func (d *DenyList) AddGuild(ctx context.Context, guildID string) error {
	if err := d.store.AddGuild(ctx, guildID); err != nil {
		return fmt.Errorf("persist deny list add: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guilds[guildID] = struct{}{}
	return nil
}

// RemoveGuild takes a guild off the deny list.
func (d *DenyList) RemoveGuild(ctx context.Context, guildID string) error {
	if err := d.store.RemoveGuild(ctx, guildID); err != nil {
		return fmt.Errorf("persist deny list remove: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.guilds, guildID)
	return nil
}

// Channels returns the deny-listed channel IDs.
func (d *DenyList) Channels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.channels))
	for id := range d.channels {
		out = append(out, id)
	}
	return out
}

// Guilds returns the deny-listed guild IDs.
func (d *DenyList) Guilds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.guilds))
	for id := range d.guilds {
		out = append(out, id)
	}
	return out
}
