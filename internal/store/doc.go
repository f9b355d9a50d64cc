// Package store implements the in-memory tables that back every stateful
// protocol operation of the homeserver double.
//
// # Architecture
//
// Nine independent tables, each owning one entity type's lifetime:
//
//   - UserTable: accounts keyed by user ID
//   - DeviceTable: client devices keyed by (device ID, user ID)
//   - TokenTable: bearer access tokens keyed by token string and (user, device)
//   - RoomTable: rooms keyed by room ID
//   - AliasTable: room aliases keyed by alias
//   - MembershipTable: memberships keyed by (room ID, user ID)
//   - StateTable: latest-value room state snapshots keyed by room ID
//   - TimelineTable: the append-only per-room event timeline
//   - TagTable: per-user room tags keyed by (user ID, room ID, tag name)
//
// Every table guards its maps with its own sync.RWMutex, so unrelated
// protocol operations never serialize against each other, and no operation
// can deadlock across tables. Nothing here is durable: state lives in process
// memory and resets on restart, which is the point of a test double.
//
// # Write policies
//
// All keyed tables upsert: creating a row whose key already exists replaces
// the old row. The one exception is the timeline, which is append-only and
// rejects a known event ID with ErrEventExists.
//
// # Shared references
//
// Accessors return live pointers into the table's own records. The endpoint
// layer mutates fetched records in place (display names, avatar URLs, room
// topics) and expects later reads to observe those writes without re-fetching.
package store
