// ABOUTME: Tests for the membership table
// ABOUTME: Latest-value-only semantics and per-room/per-user listing

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func TestMembershipTable_Put_ReplacesLatestValue(t *testing.T) {
	table := NewMembershipTable()

	table.Put("!room:mirage.test", "@alice:mirage.test", event.MembershipInvite)
	table.Put("!room:mirage.test", "@alice:mirage.test", event.MembershipJoin)

	m, err := table.Get("!room:mirage.test", "@alice:mirage.test")
	require.NoError(t, err)
	assert.Equal(t, event.MembershipJoin, m.Membership)
	assert.Len(t, table.ListByRoom("!room:mirage.test"), 1, "no membership history is kept")
}

func TestMembershipTable_ListByRoom_TwoUsers(t *testing.T) {
	table := NewMembershipTable()

	table.Put("!room:mirage.test", "@alice:mirage.test", event.MembershipJoin)
	table.Put("!room:mirage.test", "@bob:mirage.test", event.MembershipBan)
	table.Put("!other:mirage.test", "@alice:mirage.test", event.MembershipLeave)

	members := table.ListByRoom("!room:mirage.test")
	require.Len(t, members, 2)

	byUser := map[id.UserID]event.Membership{}
	for _, m := range members {
		byUser[m.UserID] = m.Membership
	}
	assert.Equal(t, event.MembershipJoin, byUser["@alice:mirage.test"])
	assert.Equal(t, event.MembershipBan, byUser["@bob:mirage.test"])
}

func TestMembershipTable_ListByUser(t *testing.T) {
	table := NewMembershipTable()

	table.Put("!room1:mirage.test", "@alice:mirage.test", event.MembershipJoin)
	table.Put("!room2:mirage.test", "@alice:mirage.test", event.MembershipKnock)
	table.Put("!room1:mirage.test", "@bob:mirage.test", event.MembershipJoin)

	memberships := table.ListByUser("@alice:mirage.test")
	require.Len(t, memberships, 2)
	for _, m := range memberships {
		assert.Equal(t, id.UserID("@alice:mirage.test"), m.UserID)
	}
}

func TestMembershipTable_Get_Absent(t *testing.T) {
	table := NewMembershipTable()

	_, err := table.Get("!room:mirage.test", "@alice:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, table.ListByRoom("!room:mirage.test"))
}
