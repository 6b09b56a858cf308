package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost             = 12
	passwordChangeCooldown = 7 * 24 * time.Hour
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	Me(ctx context.Context, userID int) (*models.User, error)
	ChangePassword(ctx context.Context, userID int, newPassword string) error
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	audit    AuditLogger
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, audit AuditLogger) AuthService {
	return &authService{
		userRepo: userRepo,
		audit:    audit,
		now:      time.Now,
	}
}

// Login deliberately collapses "no such user", "inactive account" and "wrong
// password" into one error so the response does not leak which part failed.
func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Me returns the current account state for the authenticated user, so the
// frontend sees role or category changes without waiting for a new token.
func (s *authService) Me(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangePassword enforces the once-per-week cooldown and rejects a password
// identical to the current one.
func (s *authService) ChangePassword(ctx context.Context, userID int, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ErrInvalidCredentials
	}

	if user.LastPasswordChangeAt != nil {
		elapsed := s.now().Sub(*user.LastPasswordChangeAt)
		if elapsed < passwordChangeCooldown {
			remaining := passwordChangeCooldown - elapsed
			days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
			return &PasswordCooldownError{RemainingDays: days}
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)); err == nil {
		return ErrPasswordUnchanged
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash), s.now().UTC()); err != nil {
		return err
	}

	s.audit.Log(ctx, user.ID, "password_changed", "auth", fmt.Sprint(user.ID), nil)
	return nil
}
