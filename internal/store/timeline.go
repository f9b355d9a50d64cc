// ABOUTME: Append-only per-room event timeline with a global event ID index
// ABOUTME: The one table that rejects duplicates instead of upserting

package store

import (
	"encoding/json"
	"sync"

	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/ident"
)

// Event is an immutable timeline record of something that happened in a room.
// Content and Unsigned stay raw JSON here; decoding into typed event content
// is the endpoint layer's job.
type Event struct {
	ID             id.EventID
	RoomID         id.RoomID
	Sender         id.UserID
	Type           string
	OriginServerTS int64
	Content        json.RawMessage
	Unsigned       json.RawMessage
}

// TimelineTable stores events indexed by event ID and, per room, in insertion
// order. Events are append-only and never mutated once stored.
type TimelineTable struct {
	mu     sync.RWMutex
	byID   map[id.EventID]*Event
	byRoom map[id.RoomID][]*Event
}

// NewTimelineTable creates an empty TimelineTable.
func NewTimelineTable() *TimelineTable {
	return &TimelineTable{
		byID:   make(map[id.EventID]*Event),
		byRoom: make(map[id.RoomID][]*Event),
	}
}

// Add appends an event to its room's timeline. It returns ErrInvalidEventID
// or ErrInvalidRoomID when the identifier is blank or missing its sigil
// ('$' for events, '!' for rooms), and ErrEventExists when the event ID is
// already stored. On any failure the timeline is unchanged.
func (t *TimelineTable) Add(ev *Event) error {
	if ev == nil || !ident.ValidEventID(ev.ID) {
		return ErrInvalidEventID
	}
	if !ident.ValidRoomID(ev.RoomID) {
		return ErrInvalidRoomID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[ev.ID]; ok {
		return ErrEventExists
	}
	t.byID[ev.ID] = ev
	t.byRoom[ev.RoomID] = append(t.byRoom[ev.RoomID], ev)
	return nil
}

// Get returns an event by ID, or ErrNotFound.
func (t *TimelineTable) Get(eventID id.EventID) (*Event, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ev, ok := t.byID[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return ev, nil
}

// ListByRoom returns the room's events in insertion order. An unknown room
// yields an empty slice. The returned slice is the caller's to keep; the
// events themselves are the shared stored records.
func (t *TimelineTable) ListByRoom(roomID id.RoomID) []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	events := t.byRoom[roomID]
	result := make([]*Event, len(events))
	copy(result, events)
	return result
}

func (t *TimelineTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID = make(map[id.EventID]*Event)
	t.byRoom = make(map[id.RoomID][]*Event)
}
