package models

import (
	"encoding/json"
	"time"
)

// RoomDoc is the persisted shape of a room: identity, its timer list, and an
// opaque display settings blob. Display settings never influence timer
// arithmetic; they are stored and returned verbatim for clients.
type RoomDoc struct {
	RoomID    string          `json:"room_id"`
	AdminID   string          `json:"admin_id"`
	Timers    []Timer         `json:"timers"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TimerSnapshot is an immutable view of one timer with its remaining time
// computed at snapshot instant. Used for late-join state hydration.
type TimerSnapshot struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DurationSec  int        `json:"duration_sec"`
	State        TimerState `json:"state"`
	RemainingSec int        `json:"remaining_sec"`
	Markers      []int      `json:"markers"`
}

// RoomSnapshot is the full observable state of a room at one instant.
type RoomSnapshot struct {
	RoomID         string          `json:"room_id"`
	AdminID        string          `json:"admin_id"`
	AdminOnline    bool            `json:"admin_online"`
	ClientCount    int             `json:"client_count"`
	Timers         []TimerSnapshot `json:"timers"`
	CurrentTimerID string          `json:"current_timer_id,omitempty"`
}
