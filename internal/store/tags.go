// ABOUTME: Per-user room tag table keyed by the (user ID, room ID, name) composite
// ABOUTME: Tags are user-private labels with an optional float ordering hint

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"
)

// Tag is a user-private label on a room. Order, when set, is the client's
// ordering hint and must round-trip exactly.
type Tag struct {
	UserID id.UserID
	RoomID id.RoomID
	Name   string
	Order  *float64
}

// TagTable stores tags keyed by "userID:roomID:name".
type TagTable struct {
	mu   sync.RWMutex
	tags map[string]*Tag
}

// NewTagTable creates an empty TagTable.
func NewTagTable() *TagTable {
	return &TagTable{tags: make(map[string]*Tag)}
}

func tagKey(userID id.UserID, roomID id.RoomID, name string) string {
	return string(userID) + "\x00" + string(roomID) + "\x00" + name
}

// Put records a tag, replacing any existing row with the same composite key.
func (t *TagTable) Put(userID id.UserID, roomID id.RoomID, name string, order *float64) *Tag {
	tag := &Tag{
		UserID: userID,
		RoomID: roomID,
		Name:   name,
		Order:  order,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[tagKey(userID, roomID, name)] = tag
	return tag
}

// Delete removes the tag with the exact composite key, returning the number
// of rows removed (0 or 1).
func (t *TagTable) Delete(userID id.UserID, roomID id.RoomID, name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := tagKey(userID, roomID, name)
	if _, ok := t.tags[key]; !ok {
		return 0
	}
	delete(t.tags, key)
	return 1
}

// ListByUserRoom returns every tag the user has put on the room. Order is not
// significant.
func (t *TagTable) ListByUserRoom(userID id.UserID, roomID id.RoomID) []*Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Tag, 0)
	for _, tag := range t.tags {
		if tag.UserID == userID && tag.RoomID == roomID {
			result = append(result, tag)
		}
	}
	return result
}

func (t *TagTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags = make(map[string]*Tag)
}
