package handlers

import (
	"net/http"
	"time"

	"github.com/oskporuba/club-backend/middleware"
)

type SystemHandler struct {
	csrf *middleware.CSRFGuard
}

func NewSystemHandler(csrf *middleware.CSRFGuard) *SystemHandler {
	return &SystemHandler{csrf: csrf}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	payload := jsonResponse{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CSRFToken hands the double-submit token to the frontend: once as a readable
// cookie, once in the body so it can be echoed in the request header.
func (h *SystemHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.IssueToken(w)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"csrfToken": token}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
