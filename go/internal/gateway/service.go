package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// RoomDirectory is what the gateway needs from the room manager.
type RoomDirectory interface {
	CreateRoom(ctx context.Context, adminID string) (*room.Room, error)
	GetRoom(ctx context.Context, roomID string) (*room.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	CleanupEmptyRooms()
}

// Service is the room gateway: websocket subscriptions, the client command
// surface, and the bus-to-websocket event bridge.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	roomHandler       *RoomHandler
	commandRouter     *CommandRouter
	eventConsumer     *EventConsumer
	directory         RoomDirectory
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default gateway configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService wires the gateway. Pass withConsumer=false to skip the
// JetStream bridge (events are then expected to be fed through
// BroadcastEvent, which tests use).
func NewService(config Config, directory RoomDirectory, withConsumer bool) (*Service, error) {
	cm := NewConnectionManager(config.ConnectionConfig)
	router := NewCommandRouter(directory, cm)

	s := &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, directory),
		stateHandler:      NewStateHandler(directory),
		roomHandler:       NewRoomHandler(directory),
		commandRouter:     router,
		directory:         directory,
	}

	cm.SetHandlers(router.Handle, s.handleDisconnect)

	if withConsumer {
		consumer, err := NewEventConsumer(cm, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}
	return s, nil
}

// Start runs the gateway until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting room gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("room gateway service shutting down")
	return s.Stop()
}

// Stop shuts the gateway down.
func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("room gateway service stopped")
	return nil
}

// RegisterRoutes registers all gateway HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	s.roomHandler.RegisterRoomRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

// BroadcastEvent feeds one envelope straight to the websocket pools,
// bypassing the bus.
func (s *Service) BroadcastEvent(env events.Envelope) {
	s.connectionManager.BroadcastToRoom(env.RoomID, fromEnvelope(env))
}

// handleDisconnect runs the leave flow after a connection is unregistered:
// update room membership, tell the remaining subscribers, and evict rooms
// nobody watches anymore.
func (s *Service) handleDisconnect(roomID, connID string) {
	rm, err := s.directory.GetRoom(context.Background(), roomID)
	if err != nil {
		return
	}
	rm.RemoveClient(connID)

	event, err := newLocalEvent(roomID, events.TypeRoomState, events.RoomStatePayload{Room: rm.Snapshot()})
	if err == nil {
		s.connectionManager.BroadcastToRoom(roomID, event)
	}
	s.directory.CleanupEmptyRooms()
}
