package handler

import (
	"net/http"
	"strconv"

	"beatline/internal/service"
)

// TrackHandler handles catalog search and match history endpoints
type TrackHandler struct {
	gameSvc *service.GameService
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(gameSvc *service.GameService) *TrackHandler {
	return &TrackHandler{gameSvc: gameSvc}
}

// Search handles GET /v1/tracks/search
func (h *TrackHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	tracks, err := h.gameSvc.SearchTracks(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, err, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// RecentMatches handles GET /v1/matches/recent
func (h *TrackHandler) RecentMatches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.gameSvc.RecentMatches(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": records})
}
