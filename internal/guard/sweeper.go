package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// Sweeper drives the periodic expiry reconcile and the optional activity
// digest. It is the only recurring task in the process.
type Sweeper struct {
	svc      *Service
	stores   *store.Stores
	platform Platform
	interval time.Duration

	digestExpr string // cron expression, "" disables the digest
	lastDigest time.Time
}

// NewSweeper validates the digest schedule (when set) and returns a sweeper
// ticking at interval.
func NewSweeper(svc *Service, st *store.Stores, platform Platform, interval time.Duration, digestExpr string) (*Sweeper, error) {
	if digestExpr != "" && !gronx.New().IsValid(digestExpr) {
		return nil, fmt.Errorf("invalid digest cron expression %q", digestExpr)
	}
	return &Sweeper{
		svc:        svc,
		stores:     st,
		platform:   platform,
		interval:   interval,
		digestExpr: digestExpr,
	}, nil
}

// Run reconciles once immediately, so expiries missed while the process was
// down are released right away, then loops until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.svc.Reconcile(ctx, time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var digestTimer *time.Timer
	var digestC <-chan time.Time
	if s.digestExpr != "" {
		next, err := gronx.NextTick(s.digestExpr, false)
		if err != nil {
			return fmt.Errorf("compute digest schedule: %w", err)
		}
		s.lastDigest = time.Now()
		digestTimer = time.NewTimer(time.Until(next))
		digestC = digestTimer.C
		defer digestTimer.Stop()
		slog.Info("activity digest scheduled", "cron", s.digestExpr, "next", next)
	}

	slog.Info("expiry sweep started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweep stopped")
			return nil

		case now := <-ticker.C:
			s.svc.Reconcile(ctx, now)

		case <-digestC:
			s.postDigest(ctx)
			next, err := gronx.NextTick(s.digestExpr, false)
			if err != nil {
				slog.Error("digest rescheduling failed", "error", err)
				digestC = nil
				continue
			}
			digestTimer.Reset(time.Until(next))
		}
	}
}

// postDigest summarizes lock activity since the previous digest and posts it
// to each guild's notification target. Guilds without a target are skipped.
func (s *Sweeper) postDigest(ctx context.Context) {
	since := s.lastDigest
	s.lastDigest = time.Now()

	events, err := s.stores.Events.ListSince(ctx, since)
	if err != nil {
		slog.Error("digest event query failed", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	type tally struct{ locks, releases int }
	byGuild := make(map[string]*tally)
	for _, ev := range events {
		t := byGuild[ev.GuildID]
		if t == nil {
			t = &tally{}
			byGuild[ev.GuildID] = t
		}
		switch ev.Action {
		case store.ActionLock:
			t.locks++
		case store.ActionRelease:
			t.releases++
		}
	}

	for guildID, t := range byGuild {
		target, err := s.stores.Targets.GetTarget(ctx, guildID)
		if err != nil {
			slog.Warn("digest target lookup failed", "guild_id", guildID, "error", err)
			continue
		}
		if target == "" {
			continue
		}

		content := fmt.Sprintf(
			"Lock activity since %s: %d channel(s) locked, %d unlocked.",
			since.Format("Jan 2 15:04 MST"), t.locks, t.releases)
		if err := s.platform.SendMessage(ctx, target, content); err != nil {
			slog.Warn("digest post failed", "guild_id", guildID, "channel_id", target, "error", err)
		}
	}
}
