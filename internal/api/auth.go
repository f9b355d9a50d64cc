// ABOUTME: Registration, login, and logout handlers
// ABOUTME: Shows the cross-table call order: user, then device, then token

package api

import (
	"net/http"
	"strings"

	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/ident"
)

type registerRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	DeviceID          string `json:"device_id"`
	DeviceDisplayName string `json:"initial_device_display_name"`
}

type loginRequest struct {
	Type              string          `json:"type"`
	Identifier        loginIdentifier `json:"identifier"`
	Password          string          `json:"password"`
	DeviceID          string          `json:"device_id"`
	DeviceDisplayName string          `json:"initial_device_display_name"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type sessionResponse struct {
	UserID      id.UserID   `json:"user_id"`
	AccessToken string      `json:"access_token"`
	DeviceID    id.DeviceID `json:"device_id"`
	HomeServer  string      `json:"home_server"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !a.cfg.Registration.Enabled {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "registration is disabled")
		return
	}

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}
	if req.Username == "" {
		a.writeError(w, http.StatusBadRequest, errcodeInvalidParam, "username required")
		return
	}

	userID := a.fullUserID(req.Username)
	if _, err := a.store.Users.Get(userID); err == nil {
		a.writeError(w, http.StatusBadRequest, errcodeUserInUse, "user ID already taken")
		return
	}

	user, err := a.store.Users.Create(userID, req.Password)
	if err != nil {
		a.logger.Error("failed to create user", "user_id", userID, "error", err)
		a.writeError(w, http.StatusInternalServerError, errcodeUnknown, "registration failed")
		return
	}

	deviceID := id.DeviceID(req.DeviceID)
	if deviceID == "" {
		deviceID = ident.NewDeviceID()
	}
	a.store.Devices.Put(deviceID, user.ID, req.DeviceDisplayName)

	token, err := a.store.Tokens.Create(user.ID, deviceID)
	if err != nil {
		a.logger.Error("failed to mint token", "user_id", userID, "error", err)
		a.writeError(w, http.StatusInternalServerError, errcodeUnknown, "registration failed")
		return
	}

	a.logger.Info("registered user", "user_id", user.ID, "device_id", deviceID)
	a.writeJSON(w, http.StatusOK, sessionResponse{
		UserID:      user.ID,
		AccessToken: token.Token,
		DeviceID:    deviceID,
		HomeServer:  a.cfg.Server.Name,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}
	if req.Type != "m.login.password" {
		a.writeError(w, http.StatusBadRequest, errcodeInvalidParam, "unsupported login type")
		return
	}

	userID := a.fullUserID(req.Identifier.User)
	user, err := a.store.Users.Get(userID)
	if err != nil || user.Inactive || !ident.VerifyPassword(user.PasswordHash, user.Salt, req.Password) {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "invalid username or password")
		return
	}

	// The device row must exist before its token references it.
	deviceID := id.DeviceID(req.DeviceID)
	if deviceID == "" {
		deviceID = ident.NewDeviceID()
	}
	a.store.Devices.Put(deviceID, user.ID, req.DeviceDisplayName)

	token, err := a.store.Tokens.Create(user.ID, deviceID)
	if err != nil {
		a.logger.Error("failed to mint token", "user_id", userID, "error", err)
		a.writeError(w, http.StatusInternalServerError, errcodeUnknown, "login failed")
		return
	}

	a.logger.Info("login", "user_id", user.ID, "device_id", deviceID)
	a.writeJSON(w, http.StatusOK, sessionResponse{
		UserID:      user.ID,
		AccessToken: token.Token,
		DeviceID:    deviceID,
		HomeServer:  a.cfg.Server.Name,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	a.store.Tokens.Revoke(at.Token)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleWhoami(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	a.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   at.UserID,
		"device_id": at.DeviceID,
	})
}

// fullUserID turns a bare localpart into a full user ID on this server.
// Already-qualified IDs pass through untouched.
func (a *API) fullUserID(localpart string) id.UserID {
	if strings.HasPrefix(localpart, "@") {
		return id.UserID(localpart)
	}
	return id.UserID("@" + localpart + ":" + a.cfg.Server.Name)
}
