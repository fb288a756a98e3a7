package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stagecue/stagecue/go/internal/models"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// Broadcaster delivers room events to all subscribers of a room. Events for
// one room must be delivered in the order they were published.
type Broadcaster interface {
	Broadcast(ctx context.Context, env events.Envelope) error
}

// Store persists room documents. The registry is the sole writer; the store
// never initiates timer mutation.
type Store interface {
	CreateRoom(ctx context.Context, doc models.RoomDoc) error
	LoadRoom(ctx context.Context, roomID string) (*models.RoomDoc, error)
	DeleteRoom(ctx context.Context, roomID string) error
	AppendTimer(ctx context.Context, roomID string, timer models.Timer) error
	UpdateTimer(ctx context.Context, roomID string, timer models.Timer) error
	RemoveTimer(ctx context.Context, roomID string, timerID uuid.UUID) error
	UpdateSettings(ctx context.Context, roomID string, settings json.RawMessage) error
}

// Ticker is the per-room surface the scheduler drives once per round.
type Ticker interface {
	Tick(ctx context.Context, now time.Time)
}

// RoomActivity tracks which rooms currently have a running timer. The
// registry calls MarkActive the instant a timer starts running and MarkIdle
// the instant none is, synchronously with the mutation.
type RoomActivity interface {
	MarkActive(roomID string, ticker Ticker)
	MarkIdle(roomID string)
}
