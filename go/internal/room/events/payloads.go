// Package events defines the room event envelope and payload types shared
// between the room registry (producer) and the gateway (consumer).
package events

import (
	"encoding/json"
	"time"

	"github.com/stagecue/stagecue/go/internal/models"
)

// Event type names as they appear on the wire.
const (
	TypeTimerAdded     = "TimerAdded"
	TypeTimerStarted   = "TimerStarted"
	TypeTimerPaused    = "TimerPaused"
	TypeTimerReset     = "TimerReset"
	TypeTimerRestarted = "TimerRestarted"
	TypeTimerDeleted   = "TimerDeleted"
	TypeTimeAdjusted   = "TimeAdjusted"
	TypeTimerTick      = "TimerTick"
	TypeTimerEnded     = "TimerEnded"
	TypeRoomState      = "RoomState"
)

// Envelope wraps every room event published to the bus. Events for one room
// share a subject, so subscribers observe them in the order the operations
// were applied.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// TimerAddedPayload announces a newly created timer with its full snapshot,
// markers included.
type TimerAddedPayload struct {
	Timer models.TimerSnapshot `json:"timer"`
}

// TimerStartedPayload is the payload for TimerStarted.
type TimerStartedPayload struct {
	TimerID string `json:"timer_id"`
}

// TimerPausedPayload is the payload for TimerPaused.
type TimerPausedPayload struct {
	TimerID      string `json:"timer_id"`
	RemainingSec int    `json:"remaining_sec"`
}

// TimerResetPayload is the payload for TimerReset.
type TimerResetPayload struct {
	TimerID string `json:"timer_id"`
}

// TimerRestartedPayload marks the start that immediately follows a reset
// within a restart operation.
type TimerRestartedPayload struct {
	TimerID string `json:"timer_id"`
}

// TimerDeletedPayload is the payload for TimerDeleted.
type TimerDeletedPayload struct {
	TimerID string `json:"timer_id"`
}

// TimeAdjustedPayload carries the re-anchored remaining time after an
// explicit seek. The intermediate pause/resume steps the re-anchoring may
// use internally are never emitted.
type TimeAdjustedPayload struct {
	TimerID      string `json:"timer_id"`
	RemainingSec int    `json:"remaining_sec"`
	IsRunning    bool   `json:"is_running"`
}

// TimerTickPayload reports progress for the room's running timer.
type TimerTickPayload struct {
	TimerID      string    `json:"timer_id"`
	RemainingSec int       `json:"remaining_sec"`
	TotalSec     int       `json:"total_sec"`
	TickedAt     time.Time `json:"ticked_at"`
}

// TimerEndedPayload is the payload for TimerEnded.
type TimerEndedPayload struct {
	TimerID string `json:"timer_id"`
}

// RoomStatePayload carries a full room snapshot for late joiners.
type RoomStatePayload struct {
	Room models.RoomSnapshot `json:"room"`
}
