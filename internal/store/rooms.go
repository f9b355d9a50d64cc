// ABOUTME: Room table keyed by room ID
// ABOUTME: Room version is immutable after creation; descriptive fields are mutable

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"
)

// Room is a conversation channel. Version never changes after creation; the
// descriptive fields start unset and are mutated in place through the live
// reference as state events arrive.
type Room struct {
	ID      id.RoomID
	Creator id.UserID
	Version string
	Public  bool

	Name              string
	Topic             string
	JoinRule          string
	HistoryVisibility string
	GuestAccess       string
}

// RoomTable stores rooms keyed by room ID.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[id.RoomID]*Room
}

// NewRoomTable creates an empty RoomTable.
func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[id.RoomID]*Room)}
}

// Create registers a room with all descriptive fields unset, replacing any
// existing row with the same ID.
func (t *RoomTable) Create(roomID id.RoomID, creator id.UserID, version string, public bool) *Room {
	r := &Room{
		ID:      roomID,
		Creator: creator,
		Version: version,
		Public:  public,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms[roomID] = r
	return r
}

// Get returns the live room record, or ErrNotFound.
func (t *RoomTable) Get(roomID id.RoomID) (*Room, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (t *RoomTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms = make(map[id.RoomID]*Room)
}
