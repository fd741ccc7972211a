package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"beatline/internal/model"
	"beatline/internal/service"
	"beatline/internal/transport/rest/middleware"
)

// GameplayHandler handles in-game endpoints
type GameplayHandler struct {
	gameSvc *service.GameService
}

// NewGameplayHandler creates a new gameplay handler
func NewGameplayHandler(gameSvc *service.GameService) *GameplayHandler {
	return &GameplayHandler{gameSvc: gameSvc}
}

// checkSession verifies the caller's token is scoped to the path session.
func checkSession(w http.ResponseWriter, r *http.Request) (sessionID, playerID string, ok bool) {
	sessionID = mux.Vars(r)["sessionId"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return "", "", false
	}
	return sessionID, middleware.GetPlayerID(r.Context()), true
}

// Place handles POST /v1/sessions/{sessionId}/place
func (h *GameplayHandler) Place(w http.ResponseWriter, r *http.Request) {
	sessionID, playerID, ok := checkSession(w, r)
	if !ok {
		return
	}

	var req model.PlacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SessionID = sessionID
	req.PlayerID = playerID

	result, err := h.gameSvc.SubmitPlacement(&req)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Guess handles POST /v1/sessions/{sessionId}/guess
func (h *GameplayHandler) Guess(w http.ResponseWriter, r *http.Request) {
	sessionID, playerID, ok := checkSession(w, r)
	if !ok {
		return
	}

	var req model.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SessionID = sessionID
	req.PlayerID = playerID

	result, err := h.gameSvc.CheckGuess(&req)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UseToken handles POST /v1/sessions/{sessionId}/tokens/use
//
// Precondition failures (not enough tokens, bad steal target, incomplete
// guess) are 200 responses with success=false, not HTTP errors.
func (h *GameplayHandler) UseToken(w http.ResponseWriter, r *http.Request) {
	sessionID, playerID, ok := checkSession(w, r)
	if !ok {
		return
	}

	var req model.TokenActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := model.ParseTokenActionType(string(req.Action)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.SessionID = sessionID
	req.PlayerID = playerID

	result, err := h.gameSvc.UseTokenAction(&req)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Timeline handles GET /v1/sessions/{sessionId}/players/{playerId}/timeline
func (h *GameplayHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	cards, err := h.gameSvc.Timeline(vars["sessionId"], vars["playerId"])
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"timeline": cards})
}
