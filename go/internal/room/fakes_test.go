package room

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/stagecue/stagecue/go/internal/models"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// fakeBroadcaster records every published envelope in order.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, env events.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, env)
	return nil
}

func (f *fakeBroadcaster) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}

func (f *fakeBroadcaster) last() events.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

func (f *fakeBroadcaster) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// fakeStore keeps room documents in memory and counts writes.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]*models.RoomDoc
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*models.RoomDoc)}
}

func (f *fakeStore) CreateRoom(_ context.Context, doc models.RoomDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.RoomID] = &doc
	return nil
}

func (f *fakeStore) LoadRoom(_ context.Context, roomID string) (*models.RoomDoc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *doc
	copied.Timers = append([]models.Timer(nil), doc.Timers...)
	return &copied, nil
}

func (f *fakeStore) DeleteRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, roomID)
	return nil
}

func (f *fakeStore) AppendTimer(_ context.Context, roomID string, timer models.Timer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[roomID]; ok {
		doc.Timers = append(doc.Timers, timer)
	}
	return nil
}

func (f *fakeStore) UpdateTimer(_ context.Context, roomID string, timer models.Timer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if doc, ok := f.docs[roomID]; ok {
		for i := range doc.Timers {
			if doc.Timers[i].ID == timer.ID {
				doc.Timers[i] = timer
			}
		}
	}
	return nil
}

func (f *fakeStore) RemoveTimer(_ context.Context, roomID string, timerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[roomID]
	if !ok {
		return nil
	}
	kept := doc.Timers[:0]
	for _, t := range doc.Timers {
		if t.ID != timerID {
			kept = append(kept, t)
		}
	}
	doc.Timers = kept
	return nil
}

func (f *fakeStore) UpdateSettings(_ context.Context, roomID string, settings json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[roomID]; ok {
		doc.Settings = settings
	}
	return nil
}

// fakeActivity tracks the active set the way the scheduler does.
type fakeActivity struct {
	mu     sync.Mutex
	active map[string]Ticker
}

func newFakeActivity() *fakeActivity {
	return &fakeActivity{active: make(map[string]Ticker)}
}

func (f *fakeActivity) MarkActive(roomID string, ticker Ticker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[roomID] = ticker
}

func (f *fakeActivity) MarkIdle(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, roomID)
}

func (f *fakeActivity) isActive(roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[roomID]
	return ok
}
