// ABOUTME: Room state snapshot table: resolved latest value per (type, state key)
// ABOUTME: No event graph and no state resolution; a snapshot, not a history

package store

import (
	"encoding/json"
	"sync"

	"maunium.net/go/mautrix/id"
)

// StateEntry is the current resolved value of one state key in a room.
type StateEntry struct {
	Type     string
	StateKey string
	Sender   id.UserID
	Content  json.RawMessage
}

// RoomState is a room's current state snapshot. entries keeps insertion order;
// byKey indexes the same entries by (type, state key) for latest-value upserts.
// The snapshot carries its own lock so reads through a live reference stay
// consistent with concurrent upserts.
type RoomState struct {
	RoomID id.RoomID

	mu      sync.RWMutex
	entries []*StateEntry
	byKey   map[string]*StateEntry
}

func stateKey(entryType, key string) string {
	return entryType + "\x00" + key
}

// Entry returns the current value for (type, state key), or nil.
func (rs *RoomState) Entry(entryType, key string) *StateEntry {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.byKey[stateKey(entryType, key)]
}

// EntryList returns the snapshot's entries in insertion order. The slice is a
// copy; the entries themselves are the live records.
func (rs *RoomState) EntryList() []*StateEntry {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]*StateEntry(nil), rs.entries...)
}

// StateTable stores one snapshot per room, keyed by room ID.
type StateTable struct {
	mu    sync.RWMutex
	state map[id.RoomID]*RoomState
}

// NewStateTable creates an empty StateTable.
func NewStateTable() *StateTable {
	return &StateTable{state: make(map[id.RoomID]*RoomState)}
}

// Create records a room's initial state snapshot, replacing any existing
// snapshot for the same room. Later entries in initial win over earlier ones
// with the same (type, state key).
func (t *StateTable) Create(roomID id.RoomID, initial []*StateEntry) *RoomState {
	rs := &RoomState{
		RoomID: roomID,
		byKey:  make(map[string]*StateEntry),
	}
	for _, e := range initial {
		rs.upsert(e)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[roomID] = rs
	return rs
}

// Get returns the live snapshot for roomID, or ErrNotFound.
func (t *StateTable) Get(roomID id.RoomID) (*RoomState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rs, ok := t.state[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return rs, nil
}

// SetEntry upserts one state entry in a room's snapshot, keeping only the
// latest value per (type, state key). It returns ErrNotFound if the room has
// no snapshot.
func (t *StateTable) SetEntry(roomID id.RoomID, entry *StateEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, ok := t.state[roomID]
	if !ok {
		return ErrNotFound
	}
	rs.upsert(entry)
	return nil
}

// upsert replaces the entry for the same (type, state key) in place, or
// appends a new one.
func (rs *RoomState) upsert(e *StateEntry) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	key := stateKey(e.Type, e.StateKey)
	if old, ok := rs.byKey[key]; ok {
		*old = *e
		return
	}
	entry := *e
	rs.byKey[key] = &entry
	rs.entries = append(rs.entries, &entry)
}

func (t *StateTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = make(map[id.RoomID]*RoomState)
}
