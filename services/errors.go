package services

import (
	"errors"
	"fmt"
)

// Shared error values used across services and the HTTP error mapping.
var (
	// Validation and business rules
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrPasswordUnchanged        = errors.New("new password must differ from the current one")
	ErrCategoryRequired         = errors.New("a player category is required for the player role")
	ErrCategoryOnlyForPlayers   = errors.New("a player category can only be set for player or parent accounts")
	ErrShirtNumberOnlyForPlayer = errors.New("a shirt number can only be set for the player role")
	ErrCannotDeactivateSelf     = errors.New("you cannot deactivate your own account")
	ErrCannotDemoteSelf         = errors.New("you cannot remove your own admin role")

	// Training lifecycle
	ErrTrainingClosed        = errors.New("training is closed")
	ErrTrainingAlreadyClosed = errors.New("training is already closed")

	// Poll lifecycle
	ErrPollClosed         = errors.New("poll is closed")
	ErrPollAlreadyClosed  = errors.New("poll is already closed")
	ErrInvalidPollOption  = errors.New("invalid poll option")
	ErrVotingForbidden    = errors.New("coaches and admins cannot vote in polls")
	ErrCloseTimeInvalid   = errors.New("invalid poll close time")
	ErrCloseTimeNotInGrid = errors.New("poll close time must fall on a 15-minute boundary (00, 15, 30, 45)")
	ErrCloseTimeNotFuture = errors.New("poll close time must lie in the future")

	// Authorization
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Upstream dependencies
	ErrUpstreamUnavailable   = errors.New("upstream service unavailable")
	ErrUpstreamNotConfigured = errors.New("sportsnet upstream is not configured")
)

// ValidationError carries per-field messages for a rejected request body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// PasswordCooldownError is returned when a password change is attempted inside
// the 7-day cooldown window.
type PasswordCooldownError struct {
	RemainingDays int
}

func (e *PasswordCooldownError) Error() string {
	return fmt.Sprintf("password can only be changed once per week, try again in %d day(s)", e.RemainingDays)
}
