package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/markers"
	"github.com/stagecue/stagecue/go/internal/models"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// defaultTimerName is used when a client submits a blank timer name.
const defaultTimerName = "Custom Timer"

// Room owns the ordered timer set of one logical room and enforces the
// registry invariant: at most one timer is Running at any time. All
// mutations, including scheduler ticks, serialize on the room mutex, so
// pause-then-start sequences are atomic with respect to concurrent callers.
type Room struct {
	roomID  string
	adminID string

	clock       clockwork.Clock
	broadcaster Broadcaster
	store       Store
	activity    RoomActivity

	mu             sync.Mutex
	timers         []*models.Timer
	currentTimerID uuid.UUID // uuid.Nil when no timer is running
	settings       json.RawMessage

	adminConnID string
	clientConns map[string]struct{}
}

// NewRoom constructs a registry for one room. Timers loaded from the store
// are installed as-is; a timer persisted in Running state resumes ticking
// because remaining time is derived from its absolute anchors.
func NewRoom(roomID, adminID string, timers []models.Timer, settings json.RawMessage, clock clockwork.Clock, broadcaster Broadcaster, store Store, activity RoomActivity) *Room {
	r := &Room{
		roomID:      roomID,
		adminID:     adminID,
		clock:       clock,
		broadcaster: broadcaster,
		store:       store,
		activity:    activity,
		settings:    settings,
		clientConns: make(map[string]struct{}),
	}
	for i := range timers {
		t := timers[i]
		r.timers = append(r.timers, &t)
		if t.IsRunning() {
			r.setRunningLocked(t.ID)
		}
	}
	return r
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.roomID
}

// AdminID returns the owning admin identifier.
func (r *Room) AdminID() string {
	return r.adminID
}

// AddTimer creates a timer in Idle state, computes its markers, persists it,
// and announces it. The returned snapshot reflects the creation instant.
func (r *Room) AddTimer(ctx context.Context, durationSec int, name string) (models.TimerSnapshot, error) {
	if durationSec <= 0 {
		return models.TimerSnapshot{}, ErrInvalidDuration
	}
	if name == "" {
		name = defaultTimerName
	}

	timer := models.Timer{
		ID:          uuid.New(),
		Name:        name,
		DurationSec: durationSec,
		State:       models.TimerStateIdle,
		Markers:     markers.Generate(durationSec),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.AppendTimer(ctx, r.roomID, timer); err != nil {
		return models.TimerSnapshot{}, err
	}
	r.timers = append(r.timers, &timer)

	snap := r.snapshotTimerLocked(&timer, r.clock.Now())
	r.emit(ctx, events.TypeTimerAdded, events.TimerAddedPayload{Timer: snap})

	log.Info().
		Str("room_id", r.roomID).
		Str("timer_id", timer.ID.String()).
		Int("duration_sec", durationSec).
		Int("markers", len(timer.Markers)).
		Msg("timer added")
	return snap, nil
}

// StartTimer transitions the addressed timer to Running. Any other running
// timer in the room is paused first, emitting its own paused event, so the
// one-running-timer invariant holds throughout.
func (r *Room) StartTimer(ctx context.Context, timerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := r.findLocked(timerID)
	if timer == nil {
		return ErrTimerNotFound
	}

	now := r.clock.Now()
	r.pauseCurrentLocked(ctx, now, timerID)

	if !timer.Start(now) {
		return nil // already running
	}
	r.setRunningLocked(timer.ID)
	r.persistTimerLocked(ctx, timer)
	r.emit(ctx, events.TypeTimerStarted, events.TimerStartedPayload{TimerID: timerID.String()})
	return nil
}

// PauseTimer freezes the addressed timer. No-op if it is not running.
func (r *Room) PauseTimer(ctx context.Context, timerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := r.findLocked(timerID)
	if timer == nil {
		return ErrTimerNotFound
	}

	now := r.clock.Now()
	if !timer.Pause(now) {
		return nil
	}
	if r.currentTimerID == timer.ID {
		r.setRunningLocked(uuid.Nil)
	}
	r.persistTimerLocked(ctx, timer)
	r.emit(ctx, events.TypeTimerPaused, events.TimerPausedPayload{
		TimerID:      timerID.String(),
		RemainingSec: timer.RemainingSec(now),
	})
	return nil
}

// ResetTimer returns the addressed timer to Idle with full remaining time.
func (r *Room) ResetTimer(ctx context.Context, timerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := r.findLocked(timerID)
	if timer == nil {
		return ErrTimerNotFound
	}
	r.resetLocked(ctx, timer)
	return nil
}

// RestartTimer resets then starts the addressed timer, emitting the reset
// and the restart in that order. A different running timer in the room is
// paused first, as with StartTimer.
func (r *Room) RestartTimer(ctx context.Context, timerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := r.findLocked(timerID)
	if timer == nil {
		return ErrTimerNotFound
	}

	now := r.clock.Now()
	r.pauseCurrentLocked(ctx, now, timerID)
	r.resetLocked(ctx, timer)

	timer.Start(now)
	r.setRunningLocked(timer.ID)
	r.persistTimerLocked(ctx, timer)
	r.emit(ctx, events.TypeTimerRestarted, events.TimerRestartedPayload{TimerID: timerID.String()})
	return nil
}

// SetTimerTime re-anchors the addressed timer so its remaining time equals
// newTimeSec, clamped to [0, duration]. The running/paused state is
// untouched. A running timer also gets an immediate tick so observers see
// the new value without waiting for the next scheduler round.
func (r *Room) SetTimerTime(ctx context.Context, timerID uuid.UUID, newTimeSec int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := r.findLocked(timerID)
	if timer == nil {
		return ErrTimerNotFound
	}

	now := r.clock.Now()
	timer.SetRemaining(now, newTimeSec)
	r.persistTimerLocked(ctx, timer)
	r.emit(ctx, events.TypeTimeAdjusted, events.TimeAdjustedPayload{
		TimerID:      timerID.String(),
		RemainingSec: timer.RemainingSec(now),
		IsRunning:    timer.IsRunning(),
	})
	if timer.IsRunning() {
		r.tickLocked(ctx, now)
	}
	return nil
}

// DeleteTimer removes the addressed timer, forcing a pause first so the
// active-set invariant is never violated by deletion. Deletion is
// idempotent: an unknown id is a no-op.
func (r *Room) DeleteTimer(ctx context.Context, timerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, t := range r.timers {
		if t.ID == timerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	timer := r.timers[idx]
	if timer.IsRunning() {
		timer.Pause(r.clock.Now())
		r.setRunningLocked(uuid.Nil)
	}
	if err := r.store.RemoveTimer(ctx, r.roomID, timerID); err != nil {
		log.Error().Err(err).
			Str("room_id", r.roomID).
			Str("timer_id", timerID.String()).
			Msg("failed to remove timer from store")
	}
	r.timers = append(r.timers[:idx], r.timers[idx+1:]...)
	r.emit(ctx, events.TypeTimerDeleted, events.TimerDeletedPayload{TimerID: timerID.String()})
	return nil
}

// Tick reports progress for the room's running timer and retires it once
// remaining reaches zero. Called by the scheduler with the round's shared
// timestamp; safe to call on a room that just went idle.
func (r *Room) Tick(ctx context.Context, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickLocked(ctx, now)
}

// Snapshot returns an immutable view of all timers with remaining values
// computed at this instant.
func (r *Room) Snapshot() models.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	snap := models.RoomSnapshot{
		RoomID:      r.roomID,
		AdminID:     r.adminID,
		AdminOnline: r.adminConnID != "",
		ClientCount: len(r.clientConns),
	}
	if r.currentTimerID != uuid.Nil {
		snap.CurrentTimerID = r.currentTimerID.String()
	}
	for _, t := range r.timers {
		snap.Timers = append(snap.Timers, r.snapshotTimerLocked(t, now))
	}
	return snap
}

// Settings returns the opaque display settings blob.
func (r *Room) Settings() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetSettings stores a new display settings blob and persists it.
func (r *Room) SetSettings(ctx context.Context, settings json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	if err := r.store.UpdateSettings(ctx, r.roomID, settings); err != nil {
		log.Error().Err(err).Str("room_id", r.roomID).Msg("failed to persist room settings")
	}
}

// AddClient registers a subscriber connection. The admin role claims the
// admin slot; everything else counts as a viewer.
func (r *Room) AddClient(connID, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == "admin" {
		r.adminConnID = connID
		return
	}
	r.clientConns[connID] = struct{}{}
}

// RemoveClient drops a subscriber connection.
func (r *Room) RemoveClient(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminConnID == connID {
		r.adminConnID = ""
		return
	}
	delete(r.clientConns, connID)
}

// IsEmpty reports whether no subscriber is connected.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adminConnID == "" && len(r.clientConns) == 0
}

// AdminOnline reports whether the room's admin is connected.
func (r *Room) AdminOnline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adminConnID != ""
}

// HasRunningTimer reports whether any timer in the room is running.
func (r *Room) HasRunningTimer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTimerID != uuid.Nil
}

func (r *Room) tickLocked(ctx context.Context, now time.Time) {
	if r.currentTimerID == uuid.Nil {
		return
	}
	timer := r.findLocked(r.currentTimerID)
	if timer == nil {
		r.setRunningLocked(uuid.Nil)
		return
	}

	remaining := timer.RemainingSec(now)
	r.emit(ctx, events.TypeTimerTick, events.TimerTickPayload{
		TimerID:      timer.ID.String(),
		RemainingSec: remaining,
		TotalSec:     timer.DurationSec,
		TickedAt:     now,
	})

	if timer.Remaining(now) <= 0 {
		timer.End(now)
		r.setRunningLocked(uuid.Nil)
		r.persistTimerLocked(ctx, timer)
		r.emit(ctx, events.TypeTimerEnded, events.TimerEndedPayload{TimerID: timer.ID.String()})
		log.Info().
			Str("room_id", r.roomID).
			Str("timer_id", timer.ID.String()).
			Msg("timer ended")
	}
}

// resetLocked performs the reset transition and emits its event. The caller
// holds the room mutex.
func (r *Room) resetLocked(ctx context.Context, timer *models.Timer) {
	wasRunning := timer.IsRunning()
	timer.Reset(r.clock.Now())
	if wasRunning && r.currentTimerID == timer.ID {
		r.setRunningLocked(uuid.Nil)
	}
	r.persistTimerLocked(ctx, timer)
	r.emit(ctx, events.TypeTimerReset, events.TimerResetPayload{TimerID: timer.ID.String()})
}

// pauseCurrentLocked pauses whichever timer is running, unless it is the
// one being started. Emits the paused event on behalf of the displaced
// timer.
func (r *Room) pauseCurrentLocked(ctx context.Context, now time.Time, starting uuid.UUID) {
	if r.currentTimerID == uuid.Nil || r.currentTimerID == starting {
		return
	}
	current := r.findLocked(r.currentTimerID)
	if current == nil {
		r.setRunningLocked(uuid.Nil)
		return
	}
	if current.Pause(now) {
		r.persistTimerLocked(ctx, current)
		r.emit(ctx, events.TypeTimerPaused, events.TimerPausedPayload{
			TimerID:      current.ID.String(),
			RemainingSec: current.RemainingSec(now),
		})
	}
	r.setRunningLocked(uuid.Nil)
}

// setRunningLocked is the single transition point for room activity. Every
// mutator funnels through it, so active-set membership can never drift from
// the currently-running timer.
func (r *Room) setRunningLocked(id uuid.UUID) {
	wasActive := r.currentTimerID != uuid.Nil
	r.currentTimerID = id
	nowActive := id != uuid.Nil
	switch {
	case nowActive && !wasActive:
		r.activity.MarkActive(r.roomID, r)
	case !nowActive && wasActive:
		r.activity.MarkIdle(r.roomID)
	}
}

func (r *Room) findLocked(id uuid.UUID) *models.Timer {
	for _, t := range r.timers {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *Room) snapshotTimerLocked(t *models.Timer, now time.Time) models.TimerSnapshot {
	return models.TimerSnapshot{
		ID:           t.ID.String(),
		Name:         t.Name,
		DurationSec:  t.DurationSec,
		State:        t.State,
		RemainingSec: t.RemainingSec(now),
		Markers:      t.Markers,
	}
}

// persistTimerLocked writes the timer's current anchors to the store. A
// failed write is logged but does not fail the mutation: the in-memory
// state is authoritative until the next successful write.
func (r *Room) persistTimerLocked(ctx context.Context, t *models.Timer) {
	if err := r.store.UpdateTimer(ctx, r.roomID, *t); err != nil {
		log.Error().Err(err).
			Str("room_id", r.roomID).
			Str("timer_id", t.ID.String()).
			Msg("failed to persist timer state")
	}
}

// emit publishes one event for this room. Broadcast failures are logged,
// never propagated; timer state does not depend on delivery.
func (r *Room) emit(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	env := events.Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		RoomID:    r.roomID,
		Timestamp: r.clock.Now(),
		Payload:   data,
	}
	if err := r.broadcaster.Broadcast(ctx, env); err != nil {
		log.Error().Err(err).
			Str("room_id", r.roomID).
			Str("event_type", eventType).
			Msg("failed to broadcast event")
	}
}
