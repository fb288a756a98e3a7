package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestTimer(durationSec int) *Timer {
	return &Timer{
		ID:          uuid.New(),
		Name:        "test",
		DurationSec: durationSec,
		State:       TimerStateIdle,
	}
}

func TestRemainingIdle(t *testing.T) {
	timer := newTestTimer(30)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := timer.Remaining(now); got != 30*time.Second {
		t.Errorf("Remaining on idle timer: got %v, want 30s", got)
	}
}

func TestPauseFreezesRemaining(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	if got := timer.Remaining(t0.Add(10 * time.Second)); got != 20*time.Second {
		t.Fatalf("Remaining at t+10: got %v, want 20s", got)
	}

	timer.Pause(t0.Add(10 * time.Second))

	// The clock keeps moving but a paused timer does not.
	if got := timer.Remaining(t0.Add(40 * time.Second)); got != 20*time.Second {
		t.Errorf("Remaining at t+40 while paused: got %v, want 20s", got)
	}
}

func TestResumePreservesRemaining(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	timer.Pause(t0.Add(10 * time.Second))

	// Resume 40 seconds later; the pause interval must not be subtracted.
	timer.Start(t0.Add(50 * time.Second))
	if got := timer.Remaining(t0.Add(50 * time.Second)); got != 20*time.Second {
		t.Errorf("Remaining immediately after resume: got %v, want 20s", got)
	}
	if got := timer.Remaining(t0.Add(55 * time.Second)); got != 15*time.Second {
		t.Errorf("Remaining 5s after resume: got %v, want 15s", got)
	}
}

func TestStartIsNoOpWhileRunning(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !timer.Start(t0) {
		t.Fatal("first Start returned false")
	}
	anchor := *timer.StartedAt
	if timer.Start(t0.Add(5 * time.Second)) {
		t.Error("second Start on a running timer returned true")
	}
	if !timer.StartedAt.Equal(anchor) {
		t.Error("second Start moved the anchor")
	}
}

func TestPauseIsNoOpWhenNotRunning(t *testing.T) {
	timer := newTestTimer(30)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if timer.Pause(now) {
		t.Error("Pause on an idle timer returned true")
	}
	if timer.State != TimerStateIdle {
		t.Errorf("state after no-op pause: got %s, want IDLE", timer.State)
	}
}

func TestRemainingClampsAtZero(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	if got := timer.Remaining(t0.Add(2 * time.Minute)); got != 0 {
		t.Errorf("Remaining past the end: got %v, want 0", got)
	}
}

func TestResetReturnsFullDuration(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	timer.Reset(t0.Add(12 * time.Second))

	if timer.State != TimerStateIdle {
		t.Errorf("state after reset: got %s, want IDLE", timer.State)
	}
	if timer.StartedAt != nil || timer.PausedAt != nil {
		t.Error("reset left anchors set")
	}
	if got := timer.Remaining(t0.Add(20 * time.Second)); got != 30*time.Second {
		t.Errorf("Remaining after reset: got %v, want 30s", got)
	}
}

func TestEndPinsRemainingToZero(t *testing.T) {
	timer := newTestTimer(30)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	timer.End(t0.Add(30 * time.Second))

	if timer.State != TimerStateEnded {
		t.Errorf("state after end: got %s, want ENDED", timer.State)
	}
	for _, offset := range []time.Duration{0, time.Second, time.Hour} {
		if got := timer.Remaining(t0.Add(30*time.Second + offset)); got != 0 {
			t.Errorf("Remaining %v after end: got %v, want 0", offset, got)
		}
	}
}

func TestSetRemaining(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		prepare func(*Timer)
		newSec  int
		wantSec int
	}{
		{"while running", func(tm *Timer) { tm.Start(t0) }, 12, 12},
		{"while paused", func(tm *Timer) { tm.Start(t0); tm.Pause(t0.Add(5 * time.Second)) }, 12, 12},
		{"while idle", func(tm *Timer) {}, 12, 12},
		{"clamped below", func(tm *Timer) { tm.Start(t0) }, -5, 0},
		{"clamped above", func(tm *Timer) { tm.Start(t0) }, 99, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := newTestTimer(30)
			tt.prepare(timer)
			state := timer.State

			adjustAt := t0.Add(8 * time.Second)
			timer.SetRemaining(adjustAt, tt.newSec)

			if timer.State != state {
				t.Errorf("SetRemaining changed state: got %s, want %s", timer.State, state)
			}
			if got := timer.RemainingSec(adjustAt); got != tt.wantSec {
				t.Errorf("RemainingSec after seek: got %d, want %d", got, tt.wantSec)
			}
		})
	}
}

func TestSetRemainingWhileRunningKeepsCountingDown(t *testing.T) {
	timer := newTestTimer(60)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	timer.Start(t0)
	timer.SetRemaining(t0.Add(10*time.Second), 30)

	if !timer.IsRunning() {
		t.Fatal("timer stopped running after seek")
	}
	if got := timer.Remaining(t0.Add(15 * time.Second)); got != 25*time.Second {
		t.Errorf("Remaining 5s after seek: got %v, want 25s", got)
	}
}
