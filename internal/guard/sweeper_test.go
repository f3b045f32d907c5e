package guard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

func TestNewSweeperValidatesCron(t *testing.T) {
	svc, platform, mem, _ := newTestService(t)

	if _, err := NewSweeper(svc, mem.stores(), platform, time.Minute, "0 9 * * *"); err != nil {
		t.Errorf("valid cron rejected: %v", err)
	}
	if _, err := NewSweeper(svc, mem.stores(), platform, time.Minute, ""); err != nil {
		t.Errorf("empty schedule should disable the digest, got %v", err)
	}
	if _, err := NewSweeper(svc, mem.stores(), platform, time.Minute, "not a cron"); err == nil {
		t.Error("invalid cron accepted")
	}
}

func TestSweeperRunReconcilesImmediately(t *testing.T) {
	svc, platform, mem, _ := newTestService(t)
	ctx := context.Background()

	// Seed a lock already past its expiry, as after a long outage. Run uses
	// the wall clock, so the expiry is relative to it.
	mem.restrictions["ch1"] = store.Restriction{
		ChannelID: "ch1", GuildID: "g1", ExpiresAt: time.Now().Add(-time.Minute),
	}
	platform.locked["ch1"] = true
	if err := svc.Load(ctx); err != nil {
		t.Fatal(err)
	}

	sw, err := NewSweeper(svc, mem.stores(), platform, time.Hour, "")
	if err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- sw.Run(runCtx) }()

	deadline := time.After(2 * time.Second)
	for svc.IsRestricted("ch1") {
		select {
		case <-deadline:
			t.Fatal("startup reconcile never released the stale lock")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
}

func TestPostDigest(t *testing.T) {
	svc, platform, mem, now := newTestService(t)
	ctx := context.Background()

	if err := mem.SetTarget(ctx, "g1", "report-ch"); err != nil {
		t.Fatal(err)
	}
	mem.events = []store.AuditEvent{
		{GuildID: "g1", Action: store.ActionLock, CreatedAt: *now},
		{GuildID: "g1", Action: store.ActionLock, CreatedAt: *now},
		{GuildID: "g1", Action: store.ActionRelease, CreatedAt: *now},
		// No target configured for g2: its events are tallied but not posted.
		{GuildID: "g2", Action: store.ActionLock, CreatedAt: *now},
	}

	sw, err := NewSweeper(svc, mem.stores(), platform, time.Minute, "")
	if err != nil {
		t.Fatal(err)
	}
	sw.lastDigest = now.Add(-time.Hour)
	sw.postDigest(ctx)

	if len(platform.messages) != 1 {
		t.Fatalf("got %d digest posts, want 1: %v", len(platform.messages), platform.messages)
	}
	msg := platform.messages[0]
	if !strings.HasPrefix(msg, "report-ch|") {
		t.Errorf("digest posted to wrong channel: %q", msg)
	}
	if !strings.Contains(msg, "2 channel(s) locked") || !strings.Contains(msg, "1 unlocked") {
		t.Errorf("digest tally wrong: %q", msg)
	}
}

func TestPostDigestSkipsQuietWindow(t *testing.T) {
	svc, platform, mem, now := newTestService(t)
	ctx := context.Background()

	if err := mem.SetTarget(ctx, "g1", "report-ch"); err != nil {
		t.Fatal(err)
	}
	// Only an event from before the window.
	mem.events = []store.AuditEvent{
		{GuildID: "g1", Action: store.ActionLock, CreatedAt: now.Add(-2 * time.Hour)},
	}

	sw, err := NewSweeper(svc, mem.stores(), platform, time.Minute, "")
	if err != nil {
		t.Fatal(err)
	}
	sw.lastDigest = now.Add(-time.Hour)
	sw.postDigest(ctx)

	if len(platform.messages) != 0 {
		t.Errorf("quiet window should post nothing, got %v", platform.messages)
	}
}
