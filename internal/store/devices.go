// ABOUTME: Device table keyed by the (device ID, user ID) composite
// ABOUTME: Device IDs are user-scoped, so the same ID may exist under two users

package store

import (
	"sync"

	"maunium.net/go/mautrix/id"
)

// Device is a client endpoint record scoped to one user.
type Device struct {
	ID          id.DeviceID
	UserID      id.UserID
	DisplayName string
}

// DeviceTable stores devices keyed by the (device ID, user ID) pair. Device
// IDs are not globally unique; every operation takes the full composite key.
type DeviceTable struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// NewDeviceTable creates an empty DeviceTable.
func NewDeviceTable() *DeviceTable {
	return &DeviceTable{devices: make(map[string]*Device)}
}

// Matrix identifiers may themselves contain colons, so composite keys are
// joined with NUL, which no identifier can contain.
func deviceKey(deviceID id.DeviceID, userID id.UserID) string {
	return string(deviceID) + "\x00" + string(userID)
}

// Put creates a device, replacing any existing row with the same composite key.
func (t *DeviceTable) Put(deviceID id.DeviceID, userID id.UserID, displayName string) *Device {
	d := &Device{
		ID:          deviceID,
		UserID:      userID,
		DisplayName: displayName,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices[deviceKey(deviceID, userID)] = d
	return d
}

// Get returns the live device record for the exact composite key, or
// ErrNotFound.
func (t *DeviceTable) Get(deviceID id.DeviceID, userID id.UserID) (*Device, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	d, ok := t.devices[deviceKey(deviceID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// ListByUser returns every device registered under userID. A device reusing
// the same device ID under a different user is not included. Order is not
// significant.
func (t *DeviceTable) ListByUser(userID id.UserID) []*Device {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Device, 0)
	for _, d := range t.devices {
		if d.UserID == userID {
			result = append(result, d)
		}
	}
	return result
}

// Remove deletes the device with the exact composite key. It returns false if
// no such row existed; a same-ID device under a different user is untouched.
func (t *DeviceTable) Remove(deviceID id.DeviceID, userID id.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := deviceKey(deviceID, userID)
	if _, ok := t.devices[key]; !ok {
		return false
	}
	delete(t.devices, key)
	return true
}

func (t *DeviceTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = make(map[string]*Device)
}
