// ABOUTME: Tests for the timeline table
// ABOUTME: Covers identifier validation, duplicate rejection, and insertion order

package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"
)

func makeEvent(eventID id.EventID, roomID id.RoomID) *Event {
	return &Event{
		ID:             eventID,
		RoomID:         roomID,
		Sender:         "@alice:mirage.test",
		Type:           "m.room.message",
		OriginServerTS: 1700000000000,
		Content:        json.RawMessage(`{"msgtype":"m.text","body":"hi"}`),
	}
}

func TestTimelineTable_Add_AndGet(t *testing.T) {
	table := NewTimelineTable()

	ev := makeEvent("$ev1", "!room:mirage.test")
	require.NoError(t, table.Add(ev))

	got, err := table.Get("$ev1")
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = table.Get("$missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimelineTable_Add_RejectsInvalidEventID(t *testing.T) {
	table := NewTimelineTable()

	cases := []struct {
		name    string
		eventID id.EventID
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"missing sigil", "ev1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := table.Add(makeEvent(tc.eventID, "!room:mirage.test"))
			assert.ErrorIs(t, err, ErrInvalidEventID)
		})
	}

	assert.ErrorIs(t, table.Add(nil), ErrInvalidEventID)
}

func TestTimelineTable_Add_RejectsInvalidRoomID(t *testing.T) {
	table := NewTimelineTable()

	assert.ErrorIs(t, table.Add(makeEvent("$ev1", "")), ErrInvalidRoomID)
	assert.ErrorIs(t, table.Add(makeEvent("$ev1", "room:mirage.test")), ErrInvalidRoomID)

	// Nothing was stored by the failed attempts.
	_, err := table.Get("$ev1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimelineTable_Add_RejectsDuplicateEventID(t *testing.T) {
	table := NewTimelineTable()

	require.NoError(t, table.Add(makeEvent("$ev1", "!room:mirage.test")))

	dup := makeEvent("$ev1", "!room:mirage.test")
	dup.Type = "m.room.topic"
	assert.ErrorIs(t, table.Add(dup), ErrEventExists)

	// The stored event is the original, and the room has exactly one entry.
	got, err := table.Get("$ev1")
	require.NoError(t, err)
	assert.Equal(t, "m.room.message", got.Type)
	assert.Len(t, table.ListByRoom("!room:mirage.test"), 1)
}

func TestTimelineTable_ListByRoom_InsertionOrder(t *testing.T) {
	table := NewTimelineTable()

	for i := range 5 {
		ev := makeEvent(id.EventID(fmt.Sprintf("$ev%d", i)), "!room:mirage.test")
		require.NoError(t, table.Add(ev))
	}
	require.NoError(t, table.Add(makeEvent("$other", "!elsewhere:mirage.test")))

	events := table.ListByRoom("!room:mirage.test")
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, id.EventID(fmt.Sprintf("$ev%d", i)), ev.ID)
	}

	assert.Empty(t, table.ListByRoom("!unknown:mirage.test"))
}
