// Package scheduler drives the 1 Hz broadcast tick over rooms that
// currently have a running timer. Per-tick cost is proportional to the
// active set, never to the total number of rooms: registries add and remove
// themselves synchronously as timers start and stop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room"
)

// DefaultTickInterval is the broadcast cadence. Remaining time is always
// recomputed from absolute anchors, so a delayed or missed round cannot
// accumulate error.
const DefaultTickInterval = time.Second

// Scheduler ticks every active room once per round with a single shared
// timestamp, so all rooms in a round observe a consistent instant.
type Scheduler struct {
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	active map[string]room.Ticker
}

// New creates a scheduler. A non-positive interval falls back to the
// default 1-second cadence.
func New(clock clockwork.Clock, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		clock:    clock,
		interval: interval,
		active:   make(map[string]room.Ticker),
	}
}

// MarkActive adds a room to the active set. Idempotent.
func (s *Scheduler) MarkActive(roomID string, ticker room.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[roomID]; ok {
		return
	}
	s.active[roomID] = ticker
	log.Debug().Str("room_id", roomID).Int("active_rooms", len(s.active)).Msg("room marked active")
}

// MarkIdle removes a room from the active set. Effective immediately: the
// room receives no tick after this call returns.
func (s *Scheduler) MarkIdle(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[roomID]; !ok {
		return
	}
	delete(s.active, roomID)
	log.Debug().Str("room_id", roomID).Int("active_rooms", len(s.active)).Msg("room marked idle")
}

// ActiveCount returns the current size of the active set.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Run blocks, firing one tick round per interval until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("scheduler started")
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler shutting down")
			return nil
		case <-ticker.Chan():
			s.tickRound(ctx)
		}
	}
}

// tickRound ticks every room in the active set with one shared timestamp.
// The set is snapshotted first so registries can mark themselves idle
// mid-round without deadlocking against the scheduler.
func (s *Scheduler) tickRound(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	targets := make(map[string]room.Ticker, len(s.active))
	for id, t := range s.active {
		targets[id] = t
	}
	s.mu.Unlock()

	for id, t := range targets {
		s.tickRoom(ctx, id, t, now)
	}
}

// tickRoom isolates one room's tick: a panic in one room must never block
// the rest of the round.
func (s *Scheduler) tickRoom(ctx context.Context, roomID string, t room.Ticker, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("room_id", roomID).
				Interface("panic", rec).
				Msg("room tick panicked")
		}
	}()
	t.Tick(ctx, now)
}
