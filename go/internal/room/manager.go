package room

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/models"
)

// Manager owns the live set of rooms. It is constructed once at process
// bootstrap and injected into every call site; there is no process-wide
// singleton. Rooms evicted from memory survive in the store and are
// rehydrated on the next lookup.
type Manager struct {
	clock       clockwork.Clock
	broadcaster Broadcaster
	store       Store
	activity    RoomActivity

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager wires a room manager with its collaborator ports.
func NewManager(clock clockwork.Clock, broadcaster Broadcaster, store Store, activity RoomActivity) *Manager {
	return &Manager{
		clock:       clock,
		broadcaster: broadcaster,
		store:       store,
		activity:    activity,
		rooms:       make(map[string]*Room),
	}
}

// CreateRoom allocates a new room owned by the given admin and persists it.
func (m *Manager) CreateRoom(ctx context.Context, adminID string) (*Room, error) {
	roomID := uuid.New().String()

	doc := models.RoomDoc{
		RoomID:    roomID,
		AdminID:   adminID,
		CreatedAt: m.clock.Now(),
		UpdatedAt: m.clock.Now(),
	}
	if err := m.store.CreateRoom(ctx, doc); err != nil {
		return nil, err
	}

	r := NewRoom(roomID, adminID, nil, nil, m.clock, m.broadcaster, m.store, m.activity)

	m.mu.Lock()
	m.rooms[roomID] = r
	m.mu.Unlock()

	log.Info().Str("room_id", roomID).Str("admin_id", adminID).Msg("room created")
	return r, nil
}

// GetRoom returns the live room, hydrating it from the store on a cold
// lookup. Returns ErrRoomNotFound if the id exists nowhere.
func (m *Manager) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	m.mu.RLock()
	r, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	doc, err := m.store.LoadRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check under the write lock: a concurrent lookup may have hydrated.
	if r, ok := m.rooms[roomID]; ok {
		return r, nil
	}
	r = NewRoom(doc.RoomID, doc.AdminID, doc.Timers, doc.Settings, m.clock, m.broadcaster, m.store, m.activity)
	m.rooms[roomID] = r
	log.Info().Str("room_id", roomID).Int("timers", len(doc.Timers)).Msg("room hydrated from store")
	return r, nil
}

// RoomExists reports whether the room is currently live in memory.
func (m *Manager) RoomExists(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok
}

// DeleteRoom removes a room from memory and from the store. Any running
// timer is deactivated first so the scheduler drops the room synchronously.
func (m *Manager) DeleteRoom(ctx context.Context, roomID string) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	delete(m.rooms, roomID)
	m.mu.Unlock()

	if ok && r.HasRunningTimer() {
		m.activity.MarkIdle(roomID)
	}
	if err := m.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Msg("room deleted")
	return nil
}

// CleanupEmptyRooms evicts rooms with no connected subscribers and no
// running timer from memory. Their documents stay in the store for later
// rehydration.
func (m *Manager) CleanupEmptyRooms() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, r := range m.rooms {
		if r.IsEmpty() && !r.HasRunningTimer() {
			delete(m.rooms, roomID)
			log.Debug().Str("room_id", roomID).Msg("evicted empty room")
		}
	}
}

// LiveRooms returns the rooms currently held in memory.
func (m *Manager) LiveRooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}
