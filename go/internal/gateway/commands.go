package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room"
)

// Client command actions. These mirror the events a timer console sends.
const (
	ActionAddTimer     = "add-timer"
	ActionStartTimer   = "start-timer"
	ActionPauseTimer   = "pause-timer"
	ActionResetTimer   = "reset-timer"
	ActionRestartTimer = "restart-timer"
	ActionDeleteTimer  = "delete-timer"
	ActionSetTimerTime = "set-timer-time"
	ActionSetSettings  = "set-settings"
)

// Command is one client request received over a room's websocket.
type Command struct {
	Action      string          `json:"action"`
	TimerID     string          `json:"timer_id,omitempty"`
	DurationSec int             `json:"duration_sec,omitempty"`
	Name        string          `json:"name,omitempty"`
	NewTimeSec  *int            `json:"new_time_sec,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// CommandRouter validates client commands and applies them to the
// connection's room.
type CommandRouter struct {
	directory     RoomDirectory
	connectionMgr *ConnectionManager
}

// NewCommandRouter creates a command router.
func NewCommandRouter(directory RoomDirectory, cm *ConnectionManager) *CommandRouter {
	return &CommandRouter{directory: directory, connectionMgr: cm}
}

// Handle parses and executes one raw client message. Failures are reported
// back to the issuing connection only; they never fault the room.
func (cr *CommandRouter) Handle(ctx context.Context, conn *Connection, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		cr.sendError(conn, "malformed command")
		return
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room_id", conn.RoomID).
		Str("action", cmd.Action).
		Msg("handling client command")

	r, err := cr.directory.GetRoom(ctx, conn.RoomID)
	if err != nil {
		cr.sendError(conn, "room not found")
		return
	}

	if err := cr.dispatch(ctx, conn, r, cmd); err != nil {
		cr.sendError(conn, err.Error())
	}
}

func (cr *CommandRouter) dispatch(ctx context.Context, conn *Connection, r *room.Room, cmd Command) error {
	switch cmd.Action {
	case ActionAddTimer:
		// Invalid durations are rejected here, before the registry is involved.
		if cmd.DurationSec <= 0 {
			return room.ErrInvalidDuration
		}
		_, err := r.AddTimer(ctx, cmd.DurationSec, cmd.Name)
		return err

	case ActionStartTimer:
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.StartTimer(ctx, timerID)

	case ActionPauseTimer:
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.PauseTimer(ctx, timerID)

	case ActionResetTimer:
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.ResetTimer(ctx, timerID)

	case ActionRestartTimer:
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.RestartTimer(ctx, timerID)

	case ActionDeleteTimer:
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.DeleteTimer(ctx, timerID)

	case ActionSetTimerTime:
		// Seeking is an operator action: honored only while the room's
		// admin console is connected.
		if !r.AdminOnline() {
			return errors.New("admin not connected")
		}
		if cmd.NewTimeSec == nil {
			return errors.New("new_time_sec is required")
		}
		timerID, err := parseTimerID(cmd.TimerID)
		if err != nil {
			return err
		}
		return r.SetTimerTime(ctx, timerID, *cmd.NewTimeSec)

	case ActionSetSettings:
		if conn.Role != "admin" {
			return errors.New("admin role required")
		}
		r.SetSettings(ctx, cmd.Settings)
		return nil

	default:
		return errors.New("unknown action")
	}
}

func (cr *CommandRouter) sendError(conn *Connection, message string) {
	event, err := newLocalEvent(conn.RoomID, eventTypeError, errorPayload{Message: message})
	if err != nil {
		return
	}
	cr.connectionMgr.SendToConnection(conn.RoomID, conn.ID, event)
}

func parseTimerID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, room.ErrTimerNotFound
	}
	return id, nil
}
