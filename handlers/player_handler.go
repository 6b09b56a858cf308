package handlers

import (
	"net/http"

	"github.com/oskporuba/club-backend/services"
)

type PlayerHandler struct {
	userService services.UserService
}

func NewPlayerHandler(userService services.UserService) *PlayerHandler {
	return &PlayerHandler{userService: userService}
}

// List serves the public roster.
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.userService.ListPlayers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
