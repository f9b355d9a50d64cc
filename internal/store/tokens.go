// ABOUTME: Access token table with supersession: one resolvable token per (user, device)
// ABOUTME: Token strings are security-grade random; they double as bearer credentials

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/ident"
)

// AccessToken is a bearer credential proving one login session, tied to
// exactly one (user, device) pair at a time.
type AccessToken struct {
	Token    string
	UserID   id.UserID
	DeviceID id.DeviceID
}

// TokenTable stores access tokens, indexed both by token string (request
// authentication) and by "userID:deviceID" (session lookup). Creating a token
// for a pair that already has one supersedes the old token: its string stops
// resolving immediately.
type TokenTable struct {
	mu        sync.RWMutex
	byToken   map[string]*AccessToken
	bySession map[string]*AccessToken
}

// NewTokenTable creates an empty TokenTable.
func NewTokenTable() *TokenTable {
	return &TokenTable{
		byToken:   make(map[string]*AccessToken),
		bySession: make(map[string]*AccessToken),
	}
}

func sessionKey(userID id.UserID, deviceID id.DeviceID) string {
	return string(userID) + "\x00" + string(deviceID)
}

// Create mints a fresh token for the (user, device) pair. Any previous token
// for the pair becomes unresolvable: Find no longer returns it and the session
// index points at the new token only.
func (t *TokenTable) Create(userID id.UserID, deviceID id.DeviceID) (*AccessToken, error) {
	token, err := ident.NewAccessToken()
	if err != nil {
		return nil, err
	}

	at := &AccessToken{
		Token:    token,
		UserID:   userID,
		DeviceID: deviceID,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey(userID, deviceID)
	if old, ok := t.bySession[key]; ok {
		delete(t.byToken, old.Token)
	}
	t.bySession[key] = at
	t.byToken[token] = at
	return at, nil
}

// GetByUserDevice returns the current token for the pair, or ErrNotFound.
func (t *TokenTable) GetByUserDevice(userID id.UserID, deviceID id.DeviceID) (*AccessToken, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	at, ok := t.bySession[sessionKey(userID, deviceID)]
	if !ok {
		return nil, ErrNotFound
	}
	return at, nil
}

// Find resolves a bearer token string. Superseded and revoked tokens do not
// resolve.
func (t *TokenTable) Find(token string) (*AccessToken, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	at, ok := t.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return at, nil
}

// ListByUser returns every resolvable token belonging to userID, one per
// device. Order is not significant.
func (t *TokenTable) ListByUser(userID id.UserID) []*AccessToken {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*AccessToken, 0)
	for _, at := range t.byToken {
		if at.UserID == userID {
			result = append(result, at)
		}
	}
	return result
}

// Revoke removes a token by its string, returning false if it did not resolve.
func (t *TokenTable) Revoke(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	at, ok := t.byToken[token]
	if !ok {
		return false
	}
	delete(t.byToken, token)

	// Only unlink the session entry if it still points at this token; a
	// superseded entry already points elsewhere.
	key := sessionKey(at.UserID, at.DeviceID)
	if cur, ok := t.bySession[key]; ok && cur.Token == token {
		delete(t.bySession, key)
	}
	return true
}

func (t *TokenTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byToken = make(map[string]*AccessToken)
	t.bySession = make(map[string]*AccessToken)
}
