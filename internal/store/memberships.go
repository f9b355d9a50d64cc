// ABOUTME: Room membership table keyed by the (room ID, user ID) composite
// ABOUTME: Latest value only; transition legality is the endpoint layer's concern

package store

import (
	"sync"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// RoomMembership is a user's current relationship to a room. Only the latest
// value is kept; there is no membership history at this layer, and no
// transition rules are enforced here.
type RoomMembership struct {
	RoomID     id.RoomID
	UserID     id.UserID
	Membership event.Membership
}

// MembershipTable stores memberships keyed by "roomID:userID".
type MembershipTable struct {
	mu          sync.RWMutex
	memberships map[string]*RoomMembership
}

// NewMembershipTable creates an empty MembershipTable.
func NewMembershipTable() *MembershipTable {
	return &MembershipTable{memberships: make(map[string]*RoomMembership)}
}

func membershipKey(roomID id.RoomID, userID id.UserID) string {
	return string(roomID) + "\x00" + string(userID)
}

// Put records a membership, replacing any existing row for the same
// (room, user) pair.
func (t *MembershipTable) Put(roomID id.RoomID, userID id.UserID, membership event.Membership) *RoomMembership {
	m := &RoomMembership{
		RoomID:     roomID,
		UserID:     userID,
		Membership: membership,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.memberships[membershipKey(roomID, userID)] = m
	return m
}

// Get returns the live membership record for the pair, or ErrNotFound.
func (t *MembershipTable) Get(roomID id.RoomID, userID id.UserID) (*RoomMembership, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.memberships[membershipKey(roomID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// ListByRoom returns every membership recorded for roomID. Order is not
// significant.
func (t *MembershipTable) ListByRoom(roomID id.RoomID) []*RoomMembership {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*RoomMembership, 0)
	for _, m := range t.memberships {
		if m.RoomID == roomID {
			result = append(result, m)
		}
	}
	return result
}

// ListByUser returns every membership recorded for userID across all rooms.
func (t *MembershipTable) ListByUser(userID id.UserID) []*RoomMembership {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*RoomMembership, 0)
	for _, m := range t.memberships {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	return result
}

func (t *MembershipTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memberships = make(map[string]*RoomMembership)
}
