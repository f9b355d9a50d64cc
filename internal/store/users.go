// ABOUTME: User account table keyed by user ID
// ABOUTME: Accounts are never hard-deleted; deactivation flips the Inactive flag

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/ident"
)

// User is a registered account. Accounts survive for the life of the store;
// deactivating one sets Inactive rather than removing the row so the user ID
// can never be re-registered with a different identity.
type User struct {
	ID           id.UserID
	PasswordHash string
	Salt         string
	DisplayName  string
	AvatarURL    string
	Inactive     bool
}

// UserTable stores accounts keyed by user ID.
type UserTable struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

// NewUserTable creates an empty UserTable.
func NewUserTable() *UserTable {
	return &UserTable{users: make(map[id.UserID]*User)}
}

// Create registers an account, hashing the password with a fresh salt. A row
// with the same user ID is replaced.
func (t *UserTable) Create(userID id.UserID, password string) (*User, error) {
	digest, salt, err := ident.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           userID,
		PasswordHash: digest,
		Salt:         salt,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[userID] = u
	return u, nil
}

// Get returns the live account record, or ErrNotFound.
func (t *UserTable) Get(userID id.UserID) (*User, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	u, ok := t.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (t *UserTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users = make(map[id.UserID]*User)
}
