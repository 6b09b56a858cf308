package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,50}$`)

type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, actor models.Identity, input CreateUserInput) (*models.User, error)
	SetActiveStatus(ctx context.Context, actor models.Identity, userID int, isActive bool) (*models.User, error)
	ResetPassword(ctx context.Context, actor models.Identity, userID int, newPassword string) error
	UpdateProfile(ctx context.Context, actor models.Identity, userID int, input UpdateProfileInput) (*models.User, error)
	ListPlayers(ctx context.Context) ([]models.PlayerView, error)
}

type CreateUserInput struct {
	Username       string                 `json:"username"`
	Password       string                 `json:"password"`
	Role           models.UserRole        `json:"role"`
	PlayerCategory *models.PlayerCategory `json:"playerCategory"`
	ShirtNumber    *int                   `json:"shirtNumber"`
	Email          *string                `json:"email"`
}

type UpdateProfileInput struct {
	Role           models.UserRole        `json:"role"`
	PlayerCategory *models.PlayerCategory `json:"playerCategory"`
	ShirtNumber    *int                   `json:"shirtNumber"`
	Email          *string                `json:"email"`
}

type userService struct {
	userRepo repositories.UserRepository
	audit    AuditLogger
	mailer   *EmailService
	logger   *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, audit AuditLogger, mailer *EmailService, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		audit:    audit,
		mailer:   mailer,
		logger:   logger,
	}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) Create(ctx context.Context, actor models.Identity, input CreateUserInput) (*models.User, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))

	fields := map[string]string{}
	if !usernamePattern.MatchString(input.Username) {
		fields["username"] = "must be 3-50 characters of lowercase letters, digits, dot, dash or underscore"
	}
	if len(input.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if !input.Role.Valid() {
		fields["role"] = "unknown role"
	}
	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := checkRoleAttributes(input.Role, input.PlayerCategory, input.ShirtNumber); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       input.Username,
		PasswordHash:   string(hash),
		Role:           input.Role,
		PlayerCategory: input.PlayerCategory,
		ShirtNumber:    input.ShirtNumber,
		Email:          input.Email,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, actor.ID, "user_created", "user", fmt.Sprint(user.ID), map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})

	if user.Email != nil && s.mailer != nil && s.mailer.Enabled() {
		email, username := *user.Email, user.Username
		go func() {
			if err := s.mailer.SendWelcomeEmail(email, username); err != nil {
				s.logger.Warn("welcome email delivery failed",
					slog.String("username", username),
					slog.Any("error", err),
				)
			}
		}()
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) SetActiveStatus(ctx context.Context, actor models.Identity, userID int, isActive bool) (*models.User, error) {
	if userID == actor.ID && !isActive {
		return nil, ErrCannotDeactivateSelf
	}

	user, err := s.userRepo.SetActiveStatus(ctx, userID, isActive)
	if err != nil {
		return nil, err
	}

	action := "user_deactivated"
	if isActive {
		action = "user_activated"
	}
	s.audit.Log(ctx, actor.ID, action, "user", fmt.Sprint(userID), nil)

	user.PasswordHash = ""
	return user, nil
}

// ResetPassword sets an admin-issued password and clears the change cooldown,
// so the account holder can pick their own password right away.
func (s *userService) ResetPassword(ctx context.Context, actor models.Identity, userID int, newPassword string) error {
	if len(newPassword) < 8 {
		return &ValidationError{Fields: map[string]string{"newPassword": "must be at least 8 characters"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	s.audit.Log(ctx, actor.ID, "user_password_reset", "user", fmt.Sprint(userID), nil)
	return nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor models.Identity, userID int, input UpdateProfileInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"role": "unknown role"}}
	}
	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		return nil, &ValidationError{Fields: map[string]string{"email": "must be a valid email address"}}
	}
	if userID == actor.ID && input.Role != models.RoleAdmin {
		return nil, ErrCannotDemoteSelf
	}
	if err := checkRoleAttributes(input.Role, input.PlayerCategory, input.ShirtNumber); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, input.Email, input.Role, input.PlayerCategory, input.ShirtNumber)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, actor.ID, "user_profile_updated", "user", fmt.Sprint(userID), map[string]any{
		"role":           input.Role,
		"playerCategory": input.PlayerCategory,
	})

	user.PasswordHash = ""
	return user, nil
}

// ListPlayers builds the public roster from active player accounts. Stats are
// zero until match reports feed them; the shape stays stable for the frontend.
func (s *userService) ListPlayers(ctx context.Context) ([]models.PlayerView, error) {
	players, err := s.userRepo.ListActivePlayers(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, models.PlayerView{
			ID:          p.ID,
			Username:    p.Username,
			FullName:    displayName(p.Username),
			Category:    p.PlayerCategory,
			ShirtNumber: p.ShirtNumber,
			Stats:       models.PlayerStats{},
		})
	}
	return views, nil
}

// checkRoleAttributes enforces which optional fields each role may carry: a
// player must have a category, a parent may have one (the child's cohort), and
// only players wear shirt numbers.
func checkRoleAttributes(role models.UserRole, category *models.PlayerCategory, shirtNumber *int) error {
	if category != nil && !category.Valid() {
		return &ValidationError{Fields: map[string]string{"playerCategory": "unknown player category"}}
	}

	switch role {
	case models.RolePlayer:
		if category == nil {
			return ErrCategoryRequired
		}
	case models.RoleParent:
		// Category optional: it names the child's cohort for visibility.
	default:
		if category != nil {
			return ErrCategoryOnlyForPlayers
		}
	}

	if shirtNumber != nil {
		if role != models.RolePlayer {
			return ErrShirtNumberOnlyForPlayer
		}
		if *shirtNumber < 1 || *shirtNumber > 99 {
			return &ValidationError{Fields: map[string]string{"shirtNumber": "must be between 1 and 99"}}
		}
	}
	return nil
}

func displayName(username string) string {
	parts := strings.FieldsFunc(username, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
