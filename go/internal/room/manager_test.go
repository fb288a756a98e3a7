package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stagecue/stagecue/go/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *fakeStore, *fakeActivity, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := newFakeStore()
	activity := newFakeActivity()
	m := NewManager(clock, &fakeBroadcaster{}, store, activity)
	return m, store, activity, clock
}

func TestCreateAndGetRoom(t *testing.T) {
	m, store, _, _ := newTestManager(t)
	ctx := context.Background()

	r, err := m.CreateRoom(ctx, "admin-1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if r.AdminID() != "admin-1" {
		t.Errorf("admin id: got %q, want admin-1", r.AdminID())
	}
	if _, ok := store.docs[r.ID()]; !ok {
		t.Error("room not persisted")
	}

	got, err := m.GetRoom(ctx, r.ID())
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got != r {
		t.Error("GetRoom returned a different instance for a live room")
	}
}

func TestGetRoomUnknown(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	if _, err := m.GetRoom(context.Background(), "nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetRoom on unknown id: got %v, want ErrRoomNotFound", err)
	}
}

func TestGetRoomHydratesFromStore(t *testing.T) {
	m, store, activity, clock := newTestManager(t)
	ctx := context.Background()

	started := clock.Now().Add(-5 * time.Second)
	store.docs["room-9"] = &models.RoomDoc{
		RoomID:  "room-9",
		AdminID: "admin-9",
		Timers: []models.Timer{{
			ID:          uuid.New(),
			Name:        "intermission",
			DurationSec: 60,
			State:       models.TimerStateRunning,
			StartedAt:   &started,
		}},
	}

	r, err := m.GetRoom(ctx, "room-9")
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if !r.HasRunningTimer() {
		t.Error("hydrated running timer lost")
	}
	if !activity.isActive("room-9") {
		t.Error("hydrated room not reactivated")
	}
	if !m.RoomExists("room-9") {
		t.Error("hydrated room not cached in memory")
	}
}

func TestDeleteRoom(t *testing.T) {
	m, store, activity, _ := newTestManager(t)
	ctx := context.Background()

	r, err := m.CreateRoom(ctx, "admin-1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	snap, err := r.AddTimer(ctx, 60, "")
	if err != nil {
		t.Fatalf("AddTimer: %v", err)
	}
	if err := r.StartTimer(ctx, uuid.MustParse(snap.ID)); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}

	if err := m.DeleteRoom(ctx, r.ID()); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if m.RoomExists(r.ID()) {
		t.Error("room still live after delete")
	}
	if _, ok := store.docs[r.ID()]; ok {
		t.Error("room doc still in store after delete")
	}
	if activity.isActive(r.ID()) {
		t.Error("deleted room still in the active set")
	}
}

func TestCleanupEmptyRooms(t *testing.T) {
	m, store, _, _ := newTestManager(t)
	ctx := context.Background()

	empty, err := m.CreateRoom(ctx, "admin-1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	busy, err := m.CreateRoom(ctx, "admin-2")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	snap, err := busy.AddTimer(ctx, 60, "")
	if err != nil {
		t.Fatalf("AddTimer: %v", err)
	}
	if err := busy.StartTimer(ctx, uuid.MustParse(snap.ID)); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}

	occupied, err := m.CreateRoom(ctx, "admin-3")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	occupied.AddClient("conn-1", "client")

	m.CleanupEmptyRooms()

	if m.RoomExists(empty.ID()) {
		t.Error("empty idle room not evicted")
	}
	if !m.RoomExists(busy.ID()) {
		t.Error("room with a running timer was evicted")
	}
	if !m.RoomExists(occupied.ID()) {
		t.Error("room with a connected client was evicted")
	}

	// Eviction drops memory only; the document survives for rehydration.
	if _, ok := store.docs[empty.ID()]; !ok {
		t.Error("evicted room lost its store document")
	}
	if _, err := m.GetRoom(ctx, empty.ID()); err != nil {
		t.Errorf("rehydrating evicted room: %v", err)
	}
}

func TestLiveRooms(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	ctx := context.Background()

	if got := len(m.LiveRooms()); got != 0 {
		t.Fatalf("live rooms before create: got %d, want 0", got)
	}
	if _, err := m.CreateRoom(ctx, "a"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := m.CreateRoom(ctx, "b"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if got := len(m.LiveRooms()); got != 2 {
		t.Errorf("live rooms: got %d, want 2", got)
	}
}
