package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// RoomEvent is the websocket wire format for one room event.
type RoomEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// fromEnvelope converts a bus envelope into the websocket event shape.
func fromEnvelope(env events.Envelope) *RoomEvent {
	return &RoomEvent{
		ID:        env.EventID,
		RoomID:    env.RoomID,
		Type:      env.EventType,
		Timestamp: env.Timestamp,
		Data:      env.Payload,
	}
}

// newLocalEvent builds an event originating in the gateway itself, such as
// the room state push on join and per-connection error reports.
func newLocalEvent(roomID, eventType string, payload any) (*RoomEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// errorPayload is sent to a single connection when its command fails.
type errorPayload struct {
	Message string `json:"message"`
}

// eventTypeError marks per-connection error reports.
const eventTypeError = "Error"
