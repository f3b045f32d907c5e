// Package guard implements the channel lock/unlock reconciliation engine:
// the restriction state machine, the trigger matcher, the deny-list filter
// and the expiry sweep that keeps memory and durable storage converged.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/chanlock/internal/store"
)

// Message is an inbound chat message as seen by the engine.
type Message struct {
	AuthorID    string
	AuthorIsBot bool
	Content     string
	ChannelID   string
	GuildID     string
}

// Service is the restriction state machine. It owns the authoritative
// in-memory map of channel → active lock and is the only writer of the
// restrictions table. All transitions are idempotent, so a release racing
// the expiry sweep resolves to a no-op on the slower side.
type Service struct {
	mu    sync.Mutex
	locks map[string]store.Restriction

	matcher  *Matcher
	denied   *DenyList
	platform Platform
	stores   *store.Stores

	duration time.Duration
	now      func() time.Time
	tracer   trace.Tracer
}

// NewService constructs the engine. duration is the fixed lock duration
// applied to every new restriction.
func NewService(platform Platform, matcher *Matcher, denied *DenyList, st *store.Stores, duration time.Duration) *Service {
	return &Service{
		locks:    make(map[string]store.Restriction),
		matcher:  matcher,
		denied:   denied,
		platform: platform,
		stores:   st,
		duration: duration,
		now:      time.Now,
		tracer:   otel.Tracer("chanlock/guard"),
	}
}

// Matcher returns the trigger matcher for the command surface.
func (s *Service) Matcher() *Matcher { return s.matcher }

// DenyList returns the deny-list mirror for the command surface.
func (s *Service) DenyList() *DenyList { return s.denied }

// Load populates the in-memory lock map from the durable store. The store is
// authoritative: whatever it holds becomes the in-memory state, and entries
// already expired at load time are reported so the first Reconcile releases
// them immediately.
func (s *Service) Load(ctx context.Context) error {
	persisted, err := s.stores.Restrictions.List(ctx)
	if err != nil {
		return fmt.Errorf("load restrictions: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = make(map[string]store.Restriction, len(persisted))
	for _, r := range persisted {
		s.locks[r.ChannelID] = r
		if !now.Before(r.ExpiresAt) {
			slog.Info("resuming lock already expired during downtime",
				"channel_id", r.ChannelID, "expired_at", r.ExpiresAt)
		} else {
			slog.Info("resuming active lock",
				"channel_id", r.ChannelID, "until", r.ExpiresAt)
		}
	}
	return nil
}

// HandleMessage runs the trigger pipeline for one inbound message:
// automated author → keyword match → deny-list filter → lock. Any panic is
// contained here so one malformed message never takes down the event loop.
func (s *Service) HandleMessage(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message pipeline panic recovered",
				"channel_id", msg.ChannelID, "panic", r)
		}
	}()

	if !msg.AuthorIsBot {
		return
	}
	if !s.matcher.Matches(ctx, msg.GuildID, msg.Content) {
		return
	}
	// The filter runs strictly before the lock so a deny-listed channel is
	// never transiently restricted.
	if s.denied.Suppressed(msg.ChannelID, msg.GuildID) {
		slog.Debug("trigger suppressed by deny list",
			"channel_id", msg.ChannelID, "guild_id", msg.GuildID)
		return
	}

	_, created, err := s.Restrict(ctx, msg.ChannelID, msg.GuildID, TriggerActor)
	switch {
	case errors.Is(err, ErrMemberNotFound):
		slog.Warn("watched account not in guild, lock skipped",
			"channel_id", msg.ChannelID, "guild_id", msg.GuildID)
	case err != nil:
		slog.Error("trigger lock failed",
			"channel_id", msg.ChannelID, "error", err)
	case created:
		slog.Info("trigger lock applied",
			"channel_id", msg.ChannelID, "author_id", msg.AuthorID)
	}
}

// Restrict locks a channel for the configured duration. Idempotent: a channel
// that is already locked keeps its existing expiry (a re-trigger does NOT
// extend the timer) and no side effects run. The platform permission change
// happens first; if it fails nothing is mutated.
func (s *Service) Restrict(ctx context.Context, channelID, guildID string, actor Actor) (time.Time, bool, error) {
	ctx, span := s.tracer.Start(ctx, "guard.Restrict",
		trace.WithAttributes(attribute.String("channel.id", channelID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.locks[channelID]; ok {
		return r.ExpiresAt, false, nil
	}

	if err := s.platform.Lock(ctx, guildID, channelID); err != nil {
		return time.Time{}, false, fmt.Errorf("apply channel lock: %w", err)
	}

	r := store.Restriction{
		ChannelID: channelID,
		GuildID:   guildID,
		ExpiresAt: s.now().Add(s.duration),
	}
	s.locks[channelID] = r

	if err := s.stores.Restrictions.Put(ctx, r); err != nil {
		// The durable store is ground truth on restart, so this lock would
		// not survive a crash. Flag the divergence loudly.
		slog.Error("lock held in memory only, durable write failed",
			"channel_id", channelID, "error", err)
	}

	if err := s.platform.NotifyLocked(ctx, channelID, r.ExpiresAt); err != nil {
		slog.Warn("locked notice failed", "channel_id", channelID, "error", err)
	}
	s.appendEvent(ctx, guildID, channelID, store.ActionLock, actor)

	slog.Info("channel locked",
		"channel_id", channelID, "guild_id", guildID,
		"until", r.ExpiresAt, "actor", actor.Display())
	return r.ExpiresAt, true, nil
}

// Release unlocks a channel. Idempotent: releasing a channel with no active
// lock is a no-op, never an error. When the permission revert fails the lock
// entry is kept so the next sweep retries.
func (s *Service) Release(ctx context.Context, channelID string, actor Actor) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "guard.Release",
		trace.WithAttributes(attribute.String("channel.id", channelID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.locks[channelID]
	if !ok {
		return false, nil
	}

	if err := s.platform.Unlock(ctx, r.GuildID, channelID); err != nil {
		return false, fmt.Errorf("revert channel lock: %w", err)
	}

	delete(s.locks, channelID)
	if err := s.stores.Restrictions.Delete(ctx, channelID); err != nil {
		slog.Error("lock removed in memory only, durable delete failed",
			"channel_id", channelID, "error", err)
	}

	if err := s.platform.NotifyUnlocked(ctx, channelID, actor); err != nil {
		slog.Warn("unlocked notice failed", "channel_id", channelID, "error", err)
	}
	s.appendEvent(ctx, r.GuildID, channelID, store.ActionRelease, actor)

	slog.Info("channel unlocked",
		"channel_id", channelID, "actor", actor.Display())
	return true, nil
}

// Reconcile releases every lock whose expiry has passed as of now. Called
// once at startup (right after Load) and then on every sweep tick.
func (s *Service) Reconcile(ctx context.Context, now time.Time) {
	ctx, span := s.tracer.Start(ctx, "guard.Reconcile")
	defer span.End()

	s.mu.Lock()
	var due []string
	for id, r := range s.locks {
		if !now.Before(r.ExpiresAt) {
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		if _, err := s.Release(ctx, id, SystemActor); err != nil {
			slog.Warn("automatic unlock failed, retrying next sweep",
				"channel_id", id, "error", err)
		}
	}
}

// IsRestricted reports whether the channel currently has an active lock.
func (s *Service) IsRestricted(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[channelID]
	return ok
}

// Remaining returns the time left on a channel's lock, or false when the
// channel is not locked.
func (s *Service) Remaining(channelID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.locks[channelID]
	if !ok {
		return 0, false
	}
	return r.ExpiresAt.Sub(s.now()), true
}

func (s *Service) appendEvent(ctx context.Context, guildID, channelID, action string, actor Actor) {
	ev := store.AuditEvent{
		ID:        uuid.New(),
		GuildID:   guildID,
		ChannelID: channelID,
		Action:    action,
		Actor:     actor.Display(),
		CreatedAt: s.now(),
	}
	if err := s.stores.Events.Append(ctx, ev); err != nil {
		slog.Warn("audit event write failed",
			"channel_id", channelID, "action", action, "error", err)
	}
}
