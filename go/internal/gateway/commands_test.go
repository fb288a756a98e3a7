package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stagecue/stagecue/go/internal/models"
	"github.com/stagecue/stagecue/go/internal/room"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// nopBroadcaster satisfies room.Broadcaster; gateway tests assert on the
// error events delivered through the connection manager instead.
type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(context.Context, events.Envelope) error { return nil }

type nopStore struct{}

func (nopStore) CreateRoom(context.Context, models.RoomDoc) error { return nil }
func (nopStore) LoadRoom(context.Context, string) (*models.RoomDoc, error) {
	return nil, room.ErrRoomNotFound
}
func (nopStore) DeleteRoom(context.Context, string) error                    { return nil }
func (nopStore) AppendTimer(context.Context, string, models.Timer) error     { return nil }
func (nopStore) UpdateTimer(context.Context, string, models.Timer) error     { return nil }
func (nopStore) RemoveTimer(context.Context, string, uuid.UUID) error        { return nil }
func (nopStore) UpdateSettings(context.Context, string, json.RawMessage) error { return nil }

type nopActivity struct{}

func (nopActivity) MarkActive(string, room.Ticker) {}
func (nopActivity) MarkIdle(string)                {}

func newTestRouter(t *testing.T) (*CommandRouter, *ConnectionManager, *room.Room) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	manager := room.NewManager(clock, nopBroadcaster{}, nopStore{}, nopActivity{})

	rm, err := manager.CreateRoom(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	cm := NewConnectionManager(DefaultConnectionConfig())
	return NewCommandRouter(manager, cm), cm, rm
}

func adminConn(rm *room.Room) *Connection {
	return &Connection{ID: "conn-1", UserID: "admin-1", Role: "admin", RoomID: rm.ID()}
}

// drainError pops the queued per-connection error event, if any.
func drainError(t *testing.T, cm *ConnectionManager) *RoomEvent {
	t.Helper()
	select {
	case msg := <-cm.broadcastCh:
		return msg.event
	default:
		return nil
	}
}

func TestHandleAddTimer(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)

	raw := []byte(`{"action":"add-timer","duration_sec":90,"name":"act one"}`)
	router.Handle(context.Background(), conn, raw)

	if event := drainError(t, cm); event != nil {
		t.Fatalf("unexpected error event: %s", event.Data)
	}
	snap := rm.Snapshot()
	if len(snap.Timers) != 1 || snap.Timers[0].Name != "act one" {
		t.Errorf("timer not added: %+v", snap.Timers)
	}
}

func TestHandleMalformedCommand(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)

	router.Handle(context.Background(), conn, []byte(`{not json`))

	event := drainError(t, cm)
	if event == nil || event.Type != eventTypeError {
		t.Fatalf("expected error event, got %+v", event)
	}
}

func TestHandleUnknownAction(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)

	router.Handle(context.Background(), conn, []byte(`{"action":"explode"}`))

	if event := drainError(t, cm); event == nil {
		t.Fatal("expected error event for unknown action")
	}
}

func TestHandleInvalidDuration(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)

	router.Handle(context.Background(), conn, []byte(`{"action":"add-timer","duration_sec":0}`))

	event := drainError(t, cm)
	if event == nil {
		t.Fatal("expected error event for zero duration")
	}
	var payload errorPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Message != room.ErrInvalidDuration.Error() {
		t.Errorf("error message: got %q, want %q", payload.Message, room.ErrInvalidDuration.Error())
	}
}

func TestHandleStartUnknownTimer(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)

	raw := []byte(`{"action":"start-timer","timer_id":"not-a-uuid"}`)
	router.Handle(context.Background(), conn, raw)

	if event := drainError(t, cm); event == nil {
		t.Fatal("expected error event for unknown timer id")
	}
}

func TestHandleStartPauseRoundTrip(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)
	ctx := context.Background()

	snap, err := rm.AddTimer(ctx, 60, "")
	if err != nil {
		t.Fatalf("AddTimer: %v", err)
	}

	router.Handle(ctx, conn, []byte(`{"action":"start-timer","timer_id":"`+snap.ID+`"}`))
	if event := drainError(t, cm); event != nil {
		t.Fatalf("start failed: %s", event.Data)
	}
	if rm.Snapshot().CurrentTimerID != snap.ID {
		t.Error("timer not running after start command")
	}

	router.Handle(ctx, conn, []byte(`{"action":"pause-timer","timer_id":"`+snap.ID+`"}`))
	if event := drainError(t, cm); event != nil {
		t.Fatalf("pause failed: %s", event.Data)
	}
	if rm.Snapshot().CurrentTimerID != "" {
		t.Error("timer still running after pause command")
	}
}

func TestSetTimerTimeRequiresAdminOnline(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	conn := adminConn(rm)
	ctx := context.Background()

	snap, err := rm.AddTimer(ctx, 60, "")
	if err != nil {
		t.Fatalf("AddTimer: %v", err)
	}
	raw := []byte(`{"action":"set-timer-time","timer_id":"` + snap.ID + `","new_time_sec":30}`)

	// No admin console connected: the seek is refused.
	router.Handle(ctx, conn, raw)
	if event := drainError(t, cm); event == nil {
		t.Fatal("expected error event while admin offline")
	}

	rm.AddClient(conn.ID, "admin")
	router.Handle(ctx, conn, raw)
	if event := drainError(t, cm); event != nil {
		t.Fatalf("seek failed with admin online: %s", event.Data)
	}
	if got := rm.Snapshot().Timers[0].RemainingSec; got != 30 {
		t.Errorf("remaining after seek: got %d, want 30", got)
	}
}

func TestSetSettingsRequiresAdminRole(t *testing.T) {
	router, cm, rm := newTestRouter(t)
	ctx := context.Background()

	viewer := &Connection{ID: "conn-2", UserID: "user-2", Role: "client", RoomID: rm.ID()}
	raw := []byte(`{"action":"set-settings","settings":{"theme":"dark"}}`)

	router.Handle(ctx, viewer, raw)
	if event := drainError(t, cm); event == nil {
		t.Fatal("expected error event for viewer set-settings")
	}

	router.Handle(ctx, adminConn(rm), raw)
	if event := drainError(t, cm); event != nil {
		t.Fatalf("admin set-settings failed: %s", event.Data)
	}
	if string(rm.Settings()) != `{"theme":"dark"}` {
		t.Errorf("settings: got %s", rm.Settings())
	}
}

func TestHandleRoomNotFound(t *testing.T) {
	router, cm, _ := newTestRouter(t)

	ghost := &Connection{ID: "conn-3", UserID: "user-3", Role: "client", RoomID: "gone"}
	router.Handle(context.Background(), ghost, []byte(`{"action":"add-timer","duration_sec":60}`))

	if event := drainError(t, cm); event == nil {
		t.Fatal("expected error event for unknown room")
	}
}
