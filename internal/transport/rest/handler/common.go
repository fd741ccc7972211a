package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"beatline/internal/service"
	"beatline/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps game errors onto HTTP statuses: unknown ids are
// 404, gameplay precondition failures are 400, everything else falls back
// to the given status (500 for local operations, 502 for provider-backed
// ones).
func writeServiceError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNoActiveTrack),
		errors.Is(err, store.ErrNoTracksLoaded),
		errors.Is(err, service.ErrGameAlreadyStarted),
		errors.Is(err, service.ErrGameNotJoinable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, fallback, err.Error())
	}
}
