// ABOUTME: Tests for the device table
// ABOUTME: Focuses on user-scoping of device IDs across users

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"
)

func TestDeviceTable_Put_Upsert(t *testing.T) {
	table := NewDeviceTable()

	table.Put("DEV1", "@alice:mirage.test", "laptop")
	table.Put("DEV1", "@alice:mirage.test", "phone")

	d, err := table.Get("DEV1", "@alice:mirage.test")
	require.NoError(t, err)
	assert.Equal(t, "phone", d.DisplayName)
	assert.Len(t, table.ListByUser("@alice:mirage.test"), 1)
}

func TestDeviceTable_Get_ScopedByUser(t *testing.T) {
	table := NewDeviceTable()

	table.Put("DEV1", "@alice:mirage.test", "alice's laptop")

	// Same device ID under a different user is a different row.
	_, err := table.Get("DEV1", "@bob:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceTable_CompositeKey_ColonsInIDs(t *testing.T) {
	table := NewDeviceTable()

	// Both pairs would flatten to the same string under a naive colon join.
	table.Put("A", "@b:x", "first")
	table.Put("A:@b", "x", "second")

	d, err := table.Get("A", "@b:x")
	require.NoError(t, err)
	assert.Equal(t, "first", d.DisplayName)

	d, err = table.Get("A:@b", "x")
	require.NoError(t, err)
	assert.Equal(t, "second", d.DisplayName)
}

func TestDeviceTable_ListByUser_ExcludesSharedDeviceIDs(t *testing.T) {
	table := NewDeviceTable()

	table.Put("DEV1", "@alice:mirage.test", "alice dev1")
	table.Put("DEV2", "@alice:mirage.test", "alice dev2")
	table.Put("DEV1", "@bob:mirage.test", "bob dev1")

	devices := table.ListByUser("@alice:mirage.test")
	require.Len(t, devices, 2)
	for _, d := range devices {
		assert.Equal(t, id.UserID("@alice:mirage.test"), d.UserID)
	}

	assert.Empty(t, table.ListByUser("@carol:mirage.test"))
}

func TestDeviceTable_Remove_ExactMatchOnly(t *testing.T) {
	table := NewDeviceTable()

	table.Put("DEV1", "@alice:mirage.test", "alice dev1")
	table.Put("DEV1", "@bob:mirage.test", "bob dev1")

	assert.True(t, table.Remove("DEV1", "@alice:mirage.test"))
	assert.False(t, table.Remove("DEV1", "@alice:mirage.test"), "second remove finds nothing")

	// Bob's same-ID device survives.
	d, err := table.Get("DEV1", "@bob:mirage.test")
	require.NoError(t, err)
	assert.Equal(t, "bob dev1", d.DisplayName)
}

func TestDeviceTable_LiveReferenceMutation(t *testing.T) {
	table := NewDeviceTable()

	table.Put("DEV1", "@alice:mirage.test", "old name")

	d, err := table.Get("DEV1", "@alice:mirage.test")
	require.NoError(t, err)
	d.DisplayName = "new name"

	again, err := table.Get("DEV1", "@alice:mirage.test")
	require.NoError(t, err)
	assert.Equal(t, "new name", again.DisplayName, "mutation through a fetched reference updates the stored record")
}
