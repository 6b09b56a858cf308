package handlers

import (
	"net/http"

	"github.com/oskporuba/club-backend/middleware"
	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/services"
)

type TrainingHandler struct {
	trainingService services.TrainingService
}

func NewTrainingHandler(trainingService services.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	trainings, err := h.trainingService.List(r.Context(), identity)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"trainings": trainings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateTrainingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	training, err := h.trainingService.Create(r.Context(), identity, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"training": training}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TrainingHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	trainingID, err := urlParamInt(r, "trainingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerUsername string                  `json:"playerUsername"`
		Status         models.AttendanceStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerUsername == "" {
		// Players omitting the username answer for themselves.
		input.PlayerUsername = identity.Username
	}

	training, err := h.trainingService.SetAttendance(r.Context(), identity, trainingID, input.PlayerUsername, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"training": training}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TrainingHandler) Close(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	trainingID, err := urlParamInt(r, "trainingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	training, err := h.trainingService.Close(r.Context(), identity, trainingID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"training": training}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	trainingID, err := urlParamInt(r, "trainingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.trainingService.Delete(r.Context(), identity, trainingID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
