// ABOUTME: Aggregate Store wiring the nine in-memory entity tables together
// ABOUTME: Tables are mutually independent; cross-table ordering is the caller's job

package store

import "errors"

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Timeline insertion errors. Expected outcomes are ordinary return values so
// the endpoint layer can map each cause to a protocol errcode without
// panic-driven control flow.
var (
	ErrEventExists    = errors.New("event already exists")
	ErrInvalidEventID = errors.New("invalid event ID")
	ErrInvalidRoomID  = errors.New("invalid room ID")
)

// Store holds every entity table backing the homeserver double. Each table
// owns its own lock and index maps; no table operation ever takes another
// table's lock. Ordering requirements that span tables (a device must exist
// before its access token is minted) are guaranteed by call sequencing in the
// endpoint layer, not here.
//
// Lookups return live pointers into canonical storage, not copies. Mutating a
// returned record through its fields updates the stored value in place and is
// visible to every later reader. Callers rely on this for profile and device
// display-name updates, so accessors must never be converted to return copies.
type Store struct {
	Users       *UserTable
	Devices     *DeviceTable
	Tokens      *TokenTable
	Rooms       *RoomTable
	Aliases     *AliasTable
	Memberships *MembershipTable
	State       *StateTable
	Timeline    *TimelineTable
	Tags        *TagTable
}

// New creates a Store with all tables empty.
func New() *Store {
	return &Store{
		Users:       NewUserTable(),
		Devices:     NewDeviceTable(),
		Rooms:       NewRoomTable(),
		Tokens:      NewTokenTable(),
		Aliases:     NewAliasTable(),
		Memberships: NewMembershipTable(),
		State:       NewStateTable(),
		Timeline:    NewTimelineTable(),
		Tags:        NewTagTable(),
	}
}

// Reset drops every row in every table. Intended for test isolation between
// client test scenarios; the server holds a single Store for its lifetime.
func (s *Store) Reset() {
	s.Users.reset()
	s.Devices.reset()
	s.Tokens.reset()
	s.Rooms.reset()
	s.Aliases.reset()
	s.Memberships.reset()
	s.State.reset()
	s.Timeline.reset()
	s.Tags.reset()
}
