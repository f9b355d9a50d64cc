// ABOUTME: Room lifecycle handlers: create, aliases, membership, state, timeline
// ABOUTME: Membership transition legality lives here, not in the store

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/miragehq/mirage/internal/ident"
	"github.com/miragehq/mirage/internal/store"
)

type createRoomRequest struct {
	Name        string      `json:"name"`
	Topic       string      `json:"topic"`
	RoomAlias   string      `json:"room_alias_name"`
	Visibility  string      `json:"visibility"`
	RoomVersion string      `json:"room_version"`
	Invite      []id.UserID `json:"invite"`
}

func (a *API) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	at := session(r)

	var req createRoomRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}

	version := req.RoomVersion
	if version == "" {
		version = a.cfg.Registration.DefaultRoomVersion
	}

	roomID := ident.NewRoomID(a.cfg.Server.Name)
	room := a.store.Rooms.Create(roomID, at.UserID, version, req.Visibility == "public")
	room.Name = req.Name
	room.Topic = req.Topic

	entries := []*store.StateEntry{{
		Type:    "m.room.create",
		Sender:  at.UserID,
		Content: json.RawMessage(fmt.Sprintf(`{"creator":%q,"room_version":%q}`, at.UserID, version)),
	}, {
		Type:     "m.room.member",
		StateKey: string(at.UserID),
		Sender:   at.UserID,
		Content:  json.RawMessage(`{"membership":"join"}`),
	}}
	a.store.State.Create(roomID, entries)
	a.store.Memberships.Put(roomID, at.UserID, event.MembershipJoin)

	for _, invitee := range req.Invite {
		a.store.Memberships.Put(roomID, invitee, event.MembershipInvite)
	}

	var alias id.RoomAlias
	if req.RoomAlias != "" {
		alias = id.RoomAlias("#" + req.RoomAlias + ":" + a.cfg.Server.Name)
		a.store.Aliases.Create(roomID, alias, at.UserID)
	}

	a.logger.Info("created room", "room_id", roomID, "creator", at.UserID, "version", version)
	resp := map[string]any{"room_id": roomID}
	if alias != "" {
		resp["room_alias"] = alias
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleAliasResolve(w http.ResponseWriter, r *http.Request) {
	alias, err := a.store.Aliases.GetByAlias(id.RoomAlias(r.PathValue("alias")))
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room alias not found")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"room_id": alias.RoomID,
		"servers": []string{a.cfg.Server.Name},
	})
}

func (a *API) handleAliasPublish(w http.ResponseWriter, r *http.Request) {
	at := session(r)

	var req struct {
		RoomID id.RoomID `json:"room_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.RoomID == "" {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "room_id required")
		return
	}
	if _, err := a.store.Rooms.Get(req.RoomID); err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room not found")
		return
	}

	a.store.Aliases.Create(req.RoomID, id.RoomAlias(r.PathValue("alias")), at.UserID)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	roomID := id.RoomID(r.PathValue("roomID"))

	room, err := a.store.Rooms.Get(roomID)
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room not found")
		return
	}

	current, err := a.store.Memberships.Get(roomID, at.UserID)
	switch {
	case err == nil && current.Membership == event.MembershipBan:
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "you are banned from this room")
		return
	case err != nil && !room.Public:
		// No invite on record and the room is not public.
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "room requires an invite")
		return
	}

	a.setMembership(roomID, at.UserID, at.UserID, event.MembershipJoin)
	a.writeJSON(w, http.StatusOK, map[string]any{"room_id": roomID})
}

func (a *API) handleInvite(w http.ResponseWriter, r *http.Request) {
	a.membershipChange(w, r, event.MembershipInvite)
}

func (a *API) handleBan(w http.ResponseWriter, r *http.Request) {
	a.membershipChange(w, r, event.MembershipBan)
}

func (a *API) handleKick(w http.ResponseWriter, r *http.Request) {
	a.membershipChange(w, r, event.MembershipLeave)
}

// membershipChange applies an invite, kick, or ban to the user named in the
// body. The sender must currently be joined.
func (a *API) membershipChange(w http.ResponseWriter, r *http.Request, target event.Membership) {
	at := session(r)
	roomID := id.RoomID(r.PathValue("roomID"))

	if _, err := a.store.Rooms.Get(roomID); err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room not found")
		return
	}
	if !a.isJoined(roomID, at.UserID) {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "you are not in this room")
		return
	}

	var req struct {
		UserID id.UserID `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID == "" {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "user_id required")
		return
	}

	a.setMembership(roomID, req.UserID, at.UserID, target)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleLeave(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	roomID := id.RoomID(r.PathValue("roomID"))

	if _, err := a.store.Memberships.Get(roomID, at.UserID); err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "not in this room")
		return
	}
	a.setMembership(roomID, at.UserID, at.UserID, event.MembershipLeave)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

// setMembership records the latest membership value and mirrors it into the
// room's state snapshot when one exists.
func (a *API) setMembership(roomID id.RoomID, userID, sender id.UserID, m event.Membership) {
	a.store.Memberships.Put(roomID, userID, m)
	_ = a.store.State.SetEntry(roomID, &store.StateEntry{
		Type:     "m.room.member",
		StateKey: string(userID),
		Sender:   sender,
		Content:  json.RawMessage(fmt.Sprintf(`{"membership":%q}`, m)),
	})
}

func (a *API) isJoined(roomID id.RoomID, userID id.UserID) bool {
	m, err := a.store.Memberships.Get(roomID, userID)
	return err == nil && m.Membership == event.MembershipJoin
}

func (a *API) handleRoomState(w http.ResponseWriter, r *http.Request) {
	roomID := id.RoomID(r.PathValue("roomID"))

	rs, err := a.store.State.Get(roomID)
	if err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room not found")
		return
	}

	entries := rs.EntryList()
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"type":      e.Type,
			"state_key": e.StateKey,
			"sender":    e.Sender,
			"content":   e.Content,
		})
	}
	a.writeJSON(w, http.StatusOK, out)
}

func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	roomID := id.RoomID(r.PathValue("roomID"))

	if _, err := a.store.Rooms.Get(roomID); err != nil {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "room not found")
		return
	}
	if !a.isJoined(roomID, at.UserID) {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "you are not in this room")
		return
	}

	var content json.RawMessage
	if err := decodeBody(r, &content); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed event content")
		return
	}
	if len(content) == 0 {
		content = json.RawMessage(`{}`)
	}

	ev := &store.Event{
		ID:             ident.NewEventID(),
		RoomID:         roomID,
		Sender:         at.UserID,
		Type:           r.PathValue("eventType"),
		OriginServerTS: time.Now().UnixMilli(),
		Content:        content,
	}
	if err := a.store.Timeline.Add(ev); err != nil {
		a.logger.Error("failed to append event", "room_id", roomID, "error", err)
		a.writeError(w, http.StatusInternalServerError, errcodeUnknown, "failed to store event")
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"event_id": ev.ID})
}

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	roomID := id.RoomID(r.PathValue("roomID"))

	events := a.store.Timeline.ListByRoom(roomID)
	chunk := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		chunk = append(chunk, eventJSON(ev))
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"chunk": chunk})
}

func (a *API) handleEventGet(w http.ResponseWriter, r *http.Request) {
	ev, err := a.store.Timeline.Get(id.EventID(r.PathValue("eventID")))
	if err != nil || ev.RoomID != id.RoomID(r.PathValue("roomID")) {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "event not found")
		return
	}
	a.writeJSON(w, http.StatusOK, eventJSON(ev))
}

func eventJSON(ev *store.Event) map[string]any {
	out := map[string]any{
		"event_id":         ev.ID,
		"room_id":          ev.RoomID,
		"sender":           ev.Sender,
		"type":             ev.Type,
		"origin_server_ts": ev.OriginServerTS,
		"content":          ev.Content,
	}
	if len(ev.Unsigned) > 0 {
		out["unsigned"] = ev.Unsigned
	}
	return out
}
