package handlers

import (
	"net/http"

	"github.com/oskporuba/club-backend/middleware"
	"github.com/oskporuba/club-backend/services"
)

type PollHandler struct {
	pollService services.PollService
}

func NewPollHandler(pollService services.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	polls, err := h.pollService.List(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"polls": polls}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreatePollInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	poll, err := h.pollService.Create(r.Context(), identity, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"poll": poll}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	pollID, err := urlParamInt(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		OptionIndex int `json:"optionIndex"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.pollService.Vote(r.Context(), identity, pollID, input.OptionIndex); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "vote recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Close(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	pollID, err := urlParamInt(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	poll, err := h.pollService.Close(r.Context(), identity, pollID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"poll": poll}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	pollID, err := urlParamInt(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.pollService.Delete(r.Context(), identity, pollID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
