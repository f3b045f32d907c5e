package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

func openTestStores(t *testing.T) *store.Stores {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "chanlock.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDenyListStore(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	if err := st.DenyList.AddChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}
	// Adding the same channel twice is not an error.
	if err := st.DenyList.AddChannel(ctx, "ch1"); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if err := st.DenyList.AddGuild(ctx, "g1"); err != nil {
		t.Fatal(err)
	}

	channels, err := st.DenyList.ListChannels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 1 || channels[0] != "ch1" {
		t.Errorf("ListChannels() = %v, want [ch1]", channels)
	}
	guilds, err := st.DenyList.ListGuilds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(guilds) != 1 || guilds[0] != "g1" {
		t.Errorf("ListGuilds() = %v, want [g1]", guilds)
	}

	if err := st.DenyList.RemoveChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}
	channels, err = st.DenyList.ListChannels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(channels) != 0 {
		t.Errorf("ListChannels() after remove = %v, want empty", channels)
	}
}

func TestKeywordStoreUpsert(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	if err := st.Keywords.SetKeyword(ctx, "g1", "rare ping", false); err != nil {
		t.Fatal(err)
	}
	if err := st.Keywords.SetKeyword(ctx, "g1", "rare ping", true); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.Keywords.SetKeyword(ctx, "g2", "rare ping", false); err != nil {
		t.Fatal(err)
	}

	toggles, err := st.Keywords.LoadKeywords(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(toggles) != 1 || !toggles["rare ping"] {
		t.Errorf("LoadKeywords(g1) = %v, want rare ping enabled", toggles)
	}
}

func TestTargetStore(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	target, err := st.Targets.GetTarget(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if target != "" {
		t.Errorf("GetTarget() with no row = %q, want empty", target)
	}

	if err := st.Targets.SetTarget(ctx, "g1", "ch1"); err != nil {
		t.Fatal(err)
	}
	if err := st.Targets.SetTarget(ctx, "g1", "ch2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	target, err = st.Targets.GetTarget(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if target != "ch2" {
		t.Errorf("GetTarget() = %q, want ch2", target)
	}
}

func TestRestrictionStoreRoundTrip(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	expiry := time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	r := store.Restriction{ChannelID: "ch1", GuildID: "g1", ExpiresAt: expiry}
	if err := st.Restrictions.Put(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Put on an existing channel replaces the expiry.
	r.ExpiresAt = expiry.Add(time.Hour)
	if err := st.Restrictions.Put(ctx, r); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := st.Restrictions.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List() returned %d rows, want 1", len(list))
	}
	if !list[0].ExpiresAt.Equal(expiry.Add(time.Hour)) {
		t.Errorf("expiry = %v, want %v", list[0].ExpiresAt, expiry.Add(time.Hour))
	}
	if list[0].GuildID != "g1" {
		t.Errorf("guild = %q, want g1", list[0].GuildID)
	}

	if err := st.Restrictions.Delete(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}
	list, err = st.Restrictions.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List() after delete = %v, want empty", list)
	}
}

func TestEventStoreSubSecondOrdering(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	// Fractions where one is a textual prefix of the other: with a trimmed
	// fraction encoding, ".25Z" sorts after ".250000001Z" and the window
	// filter drops the earlier event.
	base := time.Date(2026, 3, 1, 12, 0, 0, 250_000_000, time.UTC)
	later := base.Add(time.Nanosecond)
	for _, at := range []time.Time{later, base} {
		ev := store.AuditEvent{
			ID:        uuid.New(),
			GuildID:   "g1",
			ChannelID: "ch1",
			Action:    store.ActionLock,
			Actor:     "trigger",
			CreatedAt: at,
		}
		if err := st.Events.Append(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	events, err := st.Events.ListSince(ctx, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("ListSince() returned %d events, want 2", len(events))
	}
	if !events[0].CreatedAt.Equal(base) || !events[1].CreatedAt.Equal(later) {
		t.Errorf("events out of chronological order: %v then %v",
			events[0].CreatedAt, events[1].CreatedAt)
	}
}

func TestEventStoreListSince(t *testing.T) {
	st := openTestStores(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)} {
		ev := store.AuditEvent{
			ID:        uuid.New(),
			GuildID:   "g1",
			ChannelID: "ch1",
			Action:    store.ActionLock,
			Actor:     "trigger",
			CreatedAt: at,
		}
		if i == 2 {
			ev.Action = store.ActionRelease
			ev.Actor = "system"
		}
		if err := st.Events.Append(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	events, err := st.Events.ListSince(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("ListSince() returned %d events, want 2", len(events))
	}
	if !events[0].CreatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("events not ordered by created_at: %v", events)
	}
	if events[1].Action != store.ActionRelease || events[1].Actor != "system" {
		t.Errorf("last event = %+v, want system release", events[1])
	}
}
