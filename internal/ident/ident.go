// ABOUTME: Identifier and credential utilities: password hashing, token and ID generation
// ABOUTME: Access tokens come from crypto/rand; cosmetic IDs may use UUIDs

package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"maunium.net/go/mautrix/id"
)

// Access tokens are bearer credentials, so they are drawn from a
// cryptographically secure source over this alphabet.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AccessTokenLength is the number of characters in a generated access token.
const AccessTokenLength = 32

const saltBytes = 16

// HashPassword derives a bcrypt digest for password using a fresh random
// salt, returning both. The salt is stored alongside the digest so Verify can
// reproduce the salted input.
func HashPassword(password string) (digest, salt string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}
	salt = hex.EncodeToString(raw)

	hashed, err := bcrypt.GenerateFromPassword([]byte(salt+password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), salt, nil
}

// VerifyPassword reports whether password matches the stored digest and salt.
func VerifyPassword(digest, salt, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(salt+password)) == nil
}

// NewAccessToken generates a fresh bearer token from crypto/rand. Bytes are
// rejection-sampled so every alphabet character is equally likely.
func NewAccessToken() (string, error) {
	// Largest multiple of len(tokenAlphabet) below 256; bytes at or above it
	// would bias the low characters and are redrawn.
	const limit = byte(256 - 256%len(tokenAlphabet))

	out := make([]byte, 0, AccessTokenLength)
	buf := make([]byte, AccessTokenLength)
	for len(out) < AccessTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generating token: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == AccessTokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// NewDeviceID generates a display-grade device identifier. Device IDs are
// cosmetic and user-scoped, so a UUID-derived string is sufficient.
func NewDeviceID() id.DeviceID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id.DeviceID(strings.ToUpper(raw[:10]))
}

// NewEventID generates a fresh event identifier with the '$' sigil.
func NewEventID() id.EventID {
	return id.EventID("$" + uuid.NewString())
}

// NewRoomID generates a fresh room identifier on the given server name with
// the '!' sigil.
func NewRoomID(serverName string) id.RoomID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id.RoomID("!" + raw[:18] + ":" + serverName)
}

// ValidEventID reports whether eventID is non-blank and carries the '$' sigil.
func ValidEventID(eventID id.EventID) bool {
	return validSigil(string(eventID), '$')
}

// ValidRoomID reports whether roomID is non-blank and carries the '!' sigil.
func ValidRoomID(roomID id.RoomID) bool {
	return validSigil(string(roomID), '!')
}

func validSigil(s string, sigil byte) bool {
	return strings.TrimSpace(s) != "" && s[0] == sigil
}
