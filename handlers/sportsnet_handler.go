package handlers

import (
	"net/http"

	"github.com/oskporuba/club-backend/services"
)

type SportsnetHandler struct {
	sportsnetService services.SportsnetService
}

func NewSportsnetHandler(sportsnetService services.SportsnetService) *SportsnetHandler {
	return &SportsnetHandler{sportsnetService: sportsnetService}
}

// Matches serves the cached federation feed; ?refresh=true forces a bypass.
func (h *SportsnetHandler) Matches(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	feed, err := h.sportsnetService.Matches(r.Context(), refresh)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, feed, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
