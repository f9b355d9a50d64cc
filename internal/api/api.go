// ABOUTME: Matrix client-server endpoint layer over the in-memory store
// ABOUTME: Handlers sequence table calls; all cross-table ordering lives here

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/miragehq/mirage/internal/config"
	"github.com/miragehq/mirage/internal/store"
)

// Matrix protocol errcodes used by this API surface.
const (
	errcodeForbidden    = "M_FORBIDDEN"
	errcodeUnknownToken = "M_UNKNOWN_TOKEN"
	errcodeMissingToken = "M_MISSING_TOKEN"
	errcodeBadJSON      = "M_BAD_JSON"
	errcodeNotFound     = "M_NOT_FOUND"
	errcodeUserInUse    = "M_USER_IN_USE"
	errcodeInvalidParam = "M_INVALID_PARAM"
	errcodeUnknown      = "M_UNKNOWN"
)

// API serves the client-server endpoints backed by a single Store.
type API struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New creates the endpoint layer.
func New(st *store.Store, cfg *config.Config, logger *slog.Logger) *API {
	return &API{store: st, cfg: cfg, logger: logger}
}

// Handler returns the full route table as an http.Handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	return mux
}

// RegisterRoutes attaches every endpoint to mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /_matrix/client/versions", a.handleVersions)

	// Account and session
	mux.HandleFunc("POST /_matrix/client/v3/register", a.handleRegister)
	mux.HandleFunc("POST /_matrix/client/v3/login", a.handleLogin)
	mux.HandleFunc("POST /_matrix/client/v3/logout", a.requireAuth(a.handleLogout))
	mux.HandleFunc("GET /_matrix/client/v3/account/whoami", a.requireAuth(a.handleWhoami))

	// Devices
	mux.HandleFunc("GET /_matrix/client/v3/devices", a.requireAuth(a.handleDevicesList))
	mux.HandleFunc("GET /_matrix/client/v3/devices/{deviceID}", a.requireAuth(a.handleDeviceGet))
	mux.HandleFunc("PUT /_matrix/client/v3/devices/{deviceID}", a.requireAuth(a.handleDeviceUpdate))
	mux.HandleFunc("DELETE /_matrix/client/v3/devices/{deviceID}", a.requireAuth(a.handleDeviceDelete))

	// Profile
	mux.HandleFunc("GET /_matrix/client/v3/profile/{userID}", a.handleProfileGet)
	mux.HandleFunc("PUT /_matrix/client/v3/profile/{userID}/displayname", a.requireAuth(a.handleDisplayNamePut))
	mux.HandleFunc("PUT /_matrix/client/v3/profile/{userID}/avatar_url", a.requireAuth(a.handleAvatarPut))

	// Rooms
	mux.HandleFunc("POST /_matrix/client/v3/createRoom", a.requireAuth(a.handleCreateRoom))
	mux.HandleFunc("GET /_matrix/client/v3/directory/room/{alias}", a.handleAliasResolve)
	mux.HandleFunc("PUT /_matrix/client/v3/directory/room/{alias}", a.requireAuth(a.handleAliasPublish))
	mux.HandleFunc("POST /_matrix/client/v3/rooms/{roomID}/join", a.requireAuth(a.handleJoin))
	mux.HandleFunc("POST /_matrix/client/v3/rooms/{roomID}/invite", a.requireAuth(a.handleInvite))
	mux.HandleFunc("POST /_matrix/client/v3/rooms/{roomID}/leave", a.requireAuth(a.handleLeave))
	mux.HandleFunc("POST /_matrix/client/v3/rooms/{roomID}/kick", a.requireAuth(a.handleKick))
	mux.HandleFunc("POST /_matrix/client/v3/rooms/{roomID}/ban", a.requireAuth(a.handleBan))
	mux.HandleFunc("GET /_matrix/client/v3/rooms/{roomID}/state", a.requireAuth(a.handleRoomState))
	mux.HandleFunc("PUT /_matrix/client/v3/rooms/{roomID}/send/{eventType}/{txnID}", a.requireAuth(a.handleSend))
	mux.HandleFunc("GET /_matrix/client/v3/rooms/{roomID}/messages", a.requireAuth(a.handleMessages))
	mux.HandleFunc("GET /_matrix/client/v3/rooms/{roomID}/event/{eventID}", a.requireAuth(a.handleEventGet))

	// Tags
	mux.HandleFunc("GET /_matrix/client/v3/user/{userID}/rooms/{roomID}/tags", a.requireAuth(a.handleTagsList))
	mux.HandleFunc("PUT /_matrix/client/v3/user/{userID}/rooms/{roomID}/tags/{tag}", a.requireAuth(a.handleTagPut))
	mux.HandleFunc("DELETE /_matrix/client/v3/user/{userID}/rooms/{roomID}/tags/{tag}", a.requireAuth(a.handleTagDelete))
}

func (a *API) handleVersions(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"versions": []string{"v1.7", "v1.8"}})
}

type ctxKey int

const sessionKey ctxKey = 0

// session returns the authenticated token record for a request that passed
// requireAuth.
func session(r *http.Request) *store.AccessToken {
	at, _ := r.Context().Value(sessionKey).(*store.AccessToken)
	return at
}

// requireAuth resolves the bearer token and stores the session on the request
// context. Absent or stale tokens get the protocol errcodes clients key on.
func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			a.writeError(w, http.StatusUnauthorized, errcodeMissingToken, "missing access token")
			return
		}
		at, err := a.store.Tokens.Find(token)
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, errcodeUnknownToken, "unknown access token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, at)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Older clients pass the token as a query parameter.
	return r.URL.Query().Get("access_token")
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, errcode, message string) {
	a.writeJSON(w, status, map[string]string{"errcode": errcode, "error": message})
}

// decodeBody parses a JSON request body, tolerating an empty body for
// endpoints whose parameters are all optional.
func decodeBody(r *http.Request, into any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(into)
}
