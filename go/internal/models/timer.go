package models

import (
	"time"

	"github.com/google/uuid"
)

// TimerState defines the lifecycle state of a countdown timer.
type TimerState string

const (
	TimerStateIdle    TimerState = "IDLE"
	TimerStateRunning TimerState = "RUNNING"
	TimerStatePaused  TimerState = "PAUSED"
	TimerStateEnded   TimerState = "ENDED"
)

// Timer represents one countdown. Remaining time is always derived from the
// absolute anchors StartedAt/PausedAt, never decremented per tick, so it
// stays exact under scheduler jitter, restarts, and late-joining observers.
type Timer struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	DurationSec int        `json:"duration_sec"`
	State       TimerState `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"` // logical start of the current run segment
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	Markers     []int      `json:"markers"` // ascending second offsets, fixed at creation
}

// Duration returns the total countdown length.
func (t *Timer) Duration() time.Duration {
	return time.Duration(t.DurationSec) * time.Second
}

// IsRunning reports whether the timer is currently counting down.
func (t *Timer) IsRunning() bool {
	return t.State == TimerStateRunning
}

// Remaining computes the time left at the given instant. For a running timer
// this is duration minus elapsed since the segment anchor; for any other
// state it is duration minus the span consumed before the pause. The result
// is clamped to [0, duration].
func (t *Timer) Remaining(now time.Time) time.Duration {
	total := t.Duration()
	if t.State == TimerStateRunning {
		if t.StartedAt == nil {
			return total
		}
		return clampDuration(total-now.Sub(*t.StartedAt), total)
	}
	if t.StartedAt != nil && t.PausedAt != nil {
		return clampDuration(total-t.PausedAt.Sub(*t.StartedAt), total)
	}
	return total
}

// RemainingSec is Remaining truncated to whole seconds, matching the wire
// representation used by tick events.
func (t *Timer) RemainingSec(now time.Time) int {
	return int(t.Remaining(now) / time.Second)
}

// Start transitions the timer to Running. Resuming from a pause re-anchors
// StartedAt so the span consumed before the pause is preserved exactly:
// the wall time spent paused never counts against the countdown.
// Returns false if the timer was already running.
func (t *Timer) Start(now time.Time) bool {
	if t.State == TimerStateRunning {
		return false
	}
	if t.StartedAt != nil && t.PausedAt != nil {
		anchored := now.Add(-t.PausedAt.Sub(*t.StartedAt))
		t.StartedAt = &anchored
	} else {
		started := now
		t.StartedAt = &started
	}
	t.PausedAt = nil
	t.State = TimerStateRunning
	return true
}

// Pause freezes the countdown at the given instant. Returns false if the
// timer was not running.
func (t *Timer) Pause(now time.Time) bool {
	if t.State != TimerStateRunning {
		return false
	}
	paused := now
	t.PausedAt = &paused
	t.State = TimerStatePaused
	return true
}

// Reset forces a pause if needed, clears both anchors, and returns the timer
// to Idle. Remaining reported afterwards equals the full duration.
func (t *Timer) Reset(now time.Time) {
	if t.State == TimerStateRunning {
		t.Pause(now)
	}
	t.StartedAt = nil
	t.PausedAt = nil
	t.State = TimerStateIdle
}

// End pins the timer at zero remaining. The anchors are set so that
// Remaining computes exactly zero regardless of when it is next read.
func (t *Timer) End(now time.Time) {
	started := now.Add(-t.Duration())
	paused := now
	t.StartedAt = &started
	t.PausedAt = &paused
	t.State = TimerStateEnded
}

// SetRemaining re-anchors the timer so Remaining equals newSec (clamped to
// [0, duration]) at the given instant. The running/paused state is
// preserved; only the absolute anchors move.
func (t *Timer) SetRemaining(now time.Time, newSec int) {
	if newSec < 0 {
		newSec = 0
	}
	if newSec > t.DurationSec {
		newSec = t.DurationSec
	}
	consumed := t.Duration() - time.Duration(newSec)*time.Second
	started := now.Add(-consumed)
	t.StartedAt = &started
	if t.State == TimerStateRunning {
		t.PausedAt = nil
		return
	}
	paused := now
	t.PausedAt = &paused
}

func clampDuration(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
