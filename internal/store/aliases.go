// ABOUTME: Room alias table keyed by alias
// ABOUTME: Many aliases may point at one room; each alias maps to exactly one room

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"
)

// RoomAlias maps a human-readable alias to a room.
type RoomAlias struct {
	Alias   id.RoomAlias
	RoomID  id.RoomID
	Creator id.UserID
}

// AliasTable stores aliases keyed by the alias string.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[id.RoomAlias]*RoomAlias
}

// NewAliasTable creates an empty AliasTable.
func NewAliasTable() *AliasTable {
	return &AliasTable{aliases: make(map[id.RoomAlias]*RoomAlias)}
}

// Create publishes an alias for a room, replacing any existing row with the
// same alias.
func (t *AliasTable) Create(roomID id.RoomID, alias id.RoomAlias, creator id.UserID) *RoomAlias {
	a := &RoomAlias{
		Alias:   alias,
		RoomID:  roomID,
		Creator: creator,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[alias] = a
	return a
}

// GetByAlias resolves an alias, or returns ErrNotFound.
func (t *AliasTable) GetByAlias(alias id.RoomAlias) (*RoomAlias, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	a, ok := t.aliases[alias]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListByRoom returns every alias published for roomID, and only those. Order
// is not significant.
func (t *AliasTable) ListByRoom(roomID id.RoomID) []*RoomAlias {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*RoomAlias, 0)
	for _, a := range t.aliases {
		if a.RoomID == roomID {
			result = append(result, a)
		}
	}
	return result
}

func (t *AliasTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases = make(map[id.RoomAlias]*RoomAlias)
}
