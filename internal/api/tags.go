// ABOUTME: Per-user room tag handlers
// ABOUTME: Tags are private: the path user must match the authenticated user

package api

import (
	"net/http"

	"maunium.net/go/mautrix/id"
)

func (a *API) handleTagsList(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	if id.UserID(r.PathValue("userID")) != at.UserID {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "cannot read another user's tags")
		return
	}

	tags := a.store.Tags.ListByUserRoom(at.UserID, id.RoomID(r.PathValue("roomID")))
	out := make(map[string]any, len(tags))
	for _, tag := range tags {
		body := map[string]any{}
		if tag.Order != nil {
			body["order"] = *tag.Order
		}
		out[tag.Name] = body
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"tags": out})
}

func (a *API) handleTagPut(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	if id.UserID(r.PathValue("userID")) != at.UserID {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "cannot edit another user's tags")
		return
	}

	var req struct {
		Order *float64 `json:"order"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, errcodeBadJSON, "malformed request body")
		return
	}

	a.store.Tags.Put(at.UserID, id.RoomID(r.PathValue("roomID")), r.PathValue("tag"), req.Order)
	a.writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) handleTagDelete(w http.ResponseWriter, r *http.Request) {
	at := session(r)
	if id.UserID(r.PathValue("userID")) != at.UserID {
		a.writeError(w, http.StatusForbidden, errcodeForbidden, "cannot edit another user's tags")
		return
	}

	removed := a.store.Tags.Delete(at.UserID, id.RoomID(r.PathValue("roomID")), r.PathValue("tag"))
	if removed == 0 {
		a.writeError(w, http.StatusNotFound, errcodeNotFound, "tag not found")
		return
	}
	a.writeJSON(w, http.StatusOK, struct{}{})
}
