package broadcast

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// LogPublisher is a Broadcaster that only logs events. Useful for
// development and for running the engine without a message bus.
type LogPublisher struct{}

// NewLogPublisher creates a log-only broadcaster.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Broadcast logs the event and drops it.
func (p *LogPublisher) Broadcast(ctx context.Context, env events.Envelope) error {
	log.Info().
		Str("event_id", env.EventID).
		Str("event_type", env.EventType).
		Str("room_id", env.RoomID).
		RawJSON("payload", env.Payload).
		Msg("broadcasting event")
	return nil
}
