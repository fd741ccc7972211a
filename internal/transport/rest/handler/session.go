package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"beatline/internal/service"
	"beatline/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	gameSvc *service.GameService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(gameSvc *service.GameService) *SessionHandler {
	return &SessionHandler{gameSvc: gameSvc}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	HostName   string `json:"hostName"`
	GameMode   string `json:"gameMode,omitempty"`
	PlaylistID string `json:"playlistId,omitempty"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HostName == "" {
		writeError(w, http.StatusBadRequest, "hostName is required")
		return
	}

	resp, err := h.gameSvc.CreateSession(req.HostName, req.GameMode, req.PlaylistID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gameSvc.LobbyList())
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	PlayerName string `json:"playerName"`
}

// Join handles POST /v1/sessions/{sessionId}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}

	resp, err := h.gameSvc.JoinSession(sessionID, req.PlayerName)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Leave handles POST /v1/sessions/{sessionId}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	playerID := middleware.GetPlayerID(r.Context())
	if err := h.gameSvc.LeaveSession(sessionID, playerID); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Status handles GET /v1/sessions/{sessionId}/status
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	info, err := h.gameSvc.SessionStatus(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// Players handles GET /v1/sessions/{sessionId}/players
func (h *SessionHandler) Players(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	players, err := h.gameSvc.SessionPlayers(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, players)
}

// LoadPlaylistRequest is the request body for loading a playlist
type LoadPlaylistRequest struct {
	PlaylistID string `json:"playlistId"`
}

// LoadPlaylist handles POST /v1/sessions/{sessionId}/playlist
func (h *SessionHandler) LoadPlaylist(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req LoadPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlaylistID == "" {
		writeError(w, http.StatusBadRequest, "playlistId is required")
		return
	}

	count, err := h.gameSvc.LoadPlaylist(r.Context(), sessionID, req.PlaylistID)
	if err != nil {
		writeServiceError(w, err, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlistId": req.PlaylistID,
		"trackCount": count,
	})
}

// Start handles POST /v1/sessions/{sessionId}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	result, err := h.gameSvc.StartGame(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CurrentTrack handles GET /v1/sessions/{sessionId}/track/current
func (h *SessionHandler) CurrentTrack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	playback, err := h.gameSvc.GetCurrentTrack(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, playback)
}

// NextTrack handles POST /v1/sessions/{sessionId}/track/next
func (h *SessionHandler) NextTrack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	result, err := h.gameSvc.NextTrack(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Leaderboard handles GET /v1/sessions/{sessionId}/leaderboard
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	lb, err := h.gameSvc.Leaderboard(sessionID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": lb})
}
