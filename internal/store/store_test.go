// ABOUTME: Tests for the aggregate Store: reset semantics and concurrent access
// ABOUTME: Hammers composite keys from many goroutines to catch torn state

package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func TestStore_Reset(t *testing.T) {
	s := New()

	_, err := s.Users.Create("@alice:mirage.test", "pw")
	require.NoError(t, err)
	s.Devices.Put("DEV1", "@alice:mirage.test", "laptop")
	_, err = s.Tokens.Create("@alice:mirage.test", "DEV1")
	require.NoError(t, err)
	s.Rooms.Create("!room:mirage.test", "@alice:mirage.test", "10", false)
	s.Aliases.Create("!room:mirage.test", "#general:mirage.test", "@alice:mirage.test")
	s.Memberships.Put("!room:mirage.test", "@alice:mirage.test", event.MembershipJoin)
	s.State.Create("!room:mirage.test", nil)
	require.NoError(t, s.Timeline.Add(&Event{
		ID:      "$ev1",
		RoomID:  "!room:mirage.test",
		Sender:  "@alice:mirage.test",
		Type:    "m.room.message",
		Content: json.RawMessage(`{}`),
	}))
	s.Tags.Put("@alice:mirage.test", "!room:mirage.test", "work", nil)

	s.Reset()

	_, err = s.Users.Get("@alice:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Devices.ListByUser("@alice:mirage.test"))
	assert.Empty(t, s.Tokens.ListByUser("@alice:mirage.test"))
	_, err = s.Rooms.Get("!room:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Aliases.ListByRoom("!room:mirage.test"))
	assert.Empty(t, s.Memberships.ListByRoom("!room:mirage.test"))
	_, err = s.State.Get("!room:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Timeline.ListByRoom("!room:mirage.test"))
	assert.Empty(t, s.Tags.ListByUserRoom("@alice:mirage.test", "!room:mirage.test"))

	// A reset store accepts the previously used event ID again.
	assert.NoError(t, s.Timeline.Add(&Event{
		ID:      "$ev1",
		RoomID:  "!room:mirage.test",
		Sender:  "@alice:mirage.test",
		Type:    "m.room.message",
		Content: json.RawMessage(`{}`),
	}))
}

func TestStore_ConcurrentTableAccess(t *testing.T) {
	s := New()
	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := id.UserID(fmt.Sprintf("@user%d:mirage.test", w))
			room := id.RoomID(fmt.Sprintf("!room%d:mirage.test", w%4))
			for i := range perWorker {
				device := id.DeviceID(fmt.Sprintf("DEV%d", i%8))
				s.Devices.Put(device, user, "dev")
				_, _ = s.Devices.Get(device, user)
				_, _ = s.Tokens.Create(user, device)
				s.Memberships.Put(room, user, event.MembershipJoin)
				_ = s.Memberships.ListByRoom(room)
				_ = s.Timeline.Add(&Event{
					ID:      id.EventID(fmt.Sprintf("$w%d-ev%d", w, i)),
					RoomID:  room,
					Sender:  user,
					Type:    "m.room.message",
					Content: json.RawMessage(`{}`),
				})
				s.Tags.Put(user, room, "work", nil)
			}
		}()
	}
	wg.Wait()

	// Every worker's rows landed exactly once per composite key.
	for w := range workers {
		user := id.UserID(fmt.Sprintf("@user%d:mirage.test", w))
		assert.Len(t, s.Devices.ListByUser(user), 8)
		assert.Len(t, s.Tokens.ListByUser(user), 8, "one resolvable token per device after supersession")
	}
	total := 0
	for r := range 4 {
		total += len(s.Timeline.ListByRoom(id.RoomID(fmt.Sprintf("!room%d:mirage.test", r))))
	}
	assert.Equal(t, workers*perWorker, total)
}

func TestStore_ConcurrentSameKeyLastWriteWins(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Devices.Put("DEV1", "@alice:mirage.test", fmt.Sprintf("writer-%d", w))
			}
		}()
	}
	wg.Wait()

	// One of the writers won; the row is intact, not torn.
	d, err := s.Devices.Get("DEV1", "@alice:mirage.test")
	require.NoError(t, err)
	assert.Regexp(t, `^writer-\d$`, d.DisplayName)
	assert.Len(t, s.Devices.ListByUser("@alice:mirage.test"), 1)
}
