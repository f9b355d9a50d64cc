// ABOUTME: Tests for the room table
// ABOUTME: Creation defaults and in-place metadata mutation

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomTable_CreateAndGet(t *testing.T) {
	table := NewRoomTable()

	r := table.Create("!room:mirage.test", "@alice:mirage.test", "10", true)
	assert.Equal(t, "10", r.Version)
	assert.True(t, r.Public)
	assert.Empty(t, r.Name, "descriptive fields start unset")
	assert.Empty(t, r.Topic)

	got, err := table.Get("!room:mirage.test")
	require.NoError(t, err)
	assert.Same(t, r, got, "Get returns the canonical record, not a copy")

	_, err = table.Get("!missing:mirage.test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoomTable_LiveReferenceMutation(t *testing.T) {
	table := NewRoomTable()

	table.Create("!room:mirage.test", "@alice:mirage.test", "10", false)

	r, err := table.Get("!room:mirage.test")
	require.NoError(t, err)
	r.Name = "Engineering"
	r.Topic = "standups"
	r.JoinRule = "invite"

	again, err := table.Get("!room:mirage.test")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", again.Name)
	assert.Equal(t, "standups", again.Topic)
	assert.Equal(t, "invite", again.JoinRule)
}
