package handlers

import (
	"errors"
	"net/http"

	"github.com/oskporuba/club-backend/middleware"
	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/services"
)

type AuthHandler struct {
	authService   services.AuthService
	authenticator *middleware.Authenticator
	cookieSecure  bool
}

func NewAuthHandler(authService services.AuthService, authenticator *middleware.Authenticator, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		authenticator: authenticator,
		cookieSecure:  cookieSecure,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Username == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username and password are required"))
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	identity := models.Identity{
		ID:             user.ID,
		Username:       user.Username,
		Role:           user.Role,
		PlayerCategory: user.PlayerCategory,
	}
	token, err := h.authenticator.IssueToken(identity)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	h.setSessionCookie(w, token, int(h.authenticator.TokenTTL().Seconds()))

	err = writeJSON(w, http.StatusOK, jsonResponse{
		"token": token,
		"user":  user,
	}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "logged out"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	user, err := h.authService.Me(r.Context(), identity.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		NewPassword string `json:"newPassword"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.NewPassword) < 8 {
		failedValidationResponse(w, r, map[string]string{"newPassword": "must be at least 8 characters"})
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.ID, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "password changed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.authenticator.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
