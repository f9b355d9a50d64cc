// ABOUTME: Device management and profile handlers
// ABOUTME: Profile updates mutate the stored record through its live reference

package api

import (
	"net/http"

	"maunium.net/go/mautrix/id"
)

type deviceResponse struct {
	DeviceID    id.DeviceID `json:"device_id"`
	DisplayName string      `json:"display_name,omitempty"`
}

func (a *API) handleDevicesList(w http.ResponseWriter, r *http.Request) {
	at := session(r)

	devices := a.store.Devices.ListByUser(at.UserID)
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceResponse{DeviceID: d.ID, DisplayName: d.DisplayName})
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

func (a *API) handleDeviceGet(w http.ResponseWriter, r *http.Request) {
	at := session(r)

	d, err := a.store.Devices.Get(id.DeviceID(r.PathValue("deviceID")), at.UserID)
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "device not found")
		return
	}
	a.writeJSON(w, http.StatusOK, deviceResponse{DeviceID: d.ID, DisplayName: d.DisplayName})
}

func (a *API) handleDeviceUpdate(w http.ResponseWriter, r *http.Request) {
	at := session(r)

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}

	d, err := a.store.Devices.Get(id.DeviceID(r.PathValue("deviceID")), at.UserID)
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "device not found")
		return
	}
	d.DisplayName = req.DisplayName
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleDeviceDelete(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	deviceID := id.DeviceID(r.PathValue("deviceID"))

	// Drop the device's session first so a half-completed delete can never
	// leave a live token pointing at a removed device.
	if t, err := a.store.Tokens.GetByUserDevice(at.UserID, deviceID); err == nil {
		a.store.Tokens.Revoke(t.Token)
	}
	if !a.store.Devices.Remove(deviceID, at.UserID) {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "device not found")
		return
	}
	a.logger.Info("deleted device", "user_id", at.UserID, "device_id", deviceID)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.Users.Get(id.UserID(r.PathValue("userID")))
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "user not found")
		return
	}

	resp := map[string]string{}
	if user.DisplayName != "" {
		resp["displayname"] = user.DisplayName
	}
	if user.AvatarURL != "" {
		resp["avatar_url"] = user.AvatarURL
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDisplayNamePut(w http.ResponseWriter, r *http.Request) {
	a.updateProfileField(w, r, func(req profileUpdate) (string, bool) {
		return req.DisplayName, true
	})
}

func (a *API) handleAvatarPut(w http.ResponseWriter, r *http.Request) {
	a.updateProfileField(w, r, func(req profileUpdate) (string, bool) {
		return req.AvatarURL, false
	})
}

type profileUpdate struct {
	DisplayName string `json:"displayname"`
	AvatarURL   string `json:"avatar_url"`
}

func (a *API) updateProfileField(w http.ResponseWriter, r *http.Request, pick func(profileUpdate) (string, bool)) {
	at := session(r)
	userID := id.UserID(r.PathValue("userID"))
	if userID != at.UserID {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "cannot edit another user's profile")
		return
	}

	var req profileUpdate
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}

	user, err := a.store.Users.Get(userID)
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "user not found")
		return
	}

	value, isDisplayName := pick(req)
	if isDisplayName {
		user.DisplayName = value
	} else {
		user.AvatarURL = value
	}
	a.writeJSON(w, http.StatusOK, struct{}{})
}
