package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oskporuba/club-backend/repositories"
	"github.com/oskporuba/club-backend/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func urlParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// The frontend expects every error body as {"message": ...}, with an optional
// "errors" map of per-field problems.
func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := writeJSON(w, status, jsonResponse{"message": message}, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	env := jsonResponse{"message": "validation failed", "errors": fields}
	if err := writeJSON(w, http.StatusBadRequest, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service and repository errors into HTTP
// responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *services.ValidationError
	var cooldownErr *services.PasswordCooldownError

	switch {
	case errors.As(err, &validationErr):
		failedValidationResponse(w, r, validationErr.Fields)

	case errors.As(err, &cooldownErr):
		errorResponse(w, r, http.StatusTooManyRequests, cooldownErr.Error())

	// Not found
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrTrainingNotFound),
		errors.Is(err, repositories.ErrPollNotFound),
		errors.Is(err, repositories.ErrAnnouncementNotFound),
		errors.Is(err, repositories.ErrBlogPostNotFound):
		notFoundResponse(w, r)

	// Conflicts
	case errors.Is(err, repositories.ErrUsernameConflict),
		errors.Is(err, repositories.ErrUserEmailConflict):
		conflictResponse(w, r, err.Error())

	// Business rules and invalid input
	case errors.Is(err, services.ErrPasswordUnchanged),
		errors.Is(err, services.ErrCategoryRequired),
		errors.Is(err, services.ErrCategoryOnlyForPlayers),
		errors.Is(err, services.ErrShirtNumberOnlyForPlayer),
		errors.Is(err, services.ErrCannotDeactivateSelf),
		errors.Is(err, services.ErrCannotDemoteSelf),
		errors.Is(err, services.ErrTrainingClosed),
		errors.Is(err, services.ErrTrainingAlreadyClosed),
		errors.Is(err, services.ErrPollClosed),
		errors.Is(err, services.ErrPollAlreadyClosed),
		errors.Is(err, services.ErrInvalidPollOption),
		errors.Is(err, services.ErrCloseTimeInvalid),
		errors.Is(err, services.ErrCloseTimeNotInGrid),
		errors.Is(err, services.ErrCloseTimeNotFuture):
		badRequestResponse(w, r, err)

	// Authentication and authorization
	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrVotingForbidden):
		forbiddenResponse(w, r, err.Error())

	// Upstream dependencies
	case errors.Is(err, services.ErrUpstreamUnavailable):
		errorResponse(w, r, http.StatusBadGateway, "match results are temporarily unavailable")
	case errors.Is(err, services.ErrUpstreamNotConfigured):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	case errors.Is(err, repositories.ErrSchemaOutOfSync):
		slog.Error("schema out of sync", slog.String("path", r.URL.Path), slog.Any("error", err))
		errorResponse(w, r, http.StatusInternalServerError, "database schema is out of sync, run the pending migration")

	default:
		serverErrorResponse(w, r, err)
	}
}
