package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
)

type AnnouncementService interface {
	List(ctx context.Context, viewer models.Identity) ([]models.Announcement, error)
	Create(ctx context.Context, viewer models.Identity, input CreateAnnouncementInput) (*models.Announcement, error)
	Delete(ctx context.Context, viewer models.Identity, announcementID int) error
}

type CreateAnnouncementInput struct {
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Target         models.Audience        `json:"target"`
	PlayerCategory *models.PlayerCategory `json:"playerCategory"`
	Important      bool                   `json:"important"`
}

type announcementService struct {
	announcementRepo repositories.AnnouncementRepository
	userRepo         repositories.UserRepository
	audit            AuditLogger
	mailer           *EmailService
	logger           *slog.Logger
}

func NewAnnouncementService(announcementRepo repositories.AnnouncementRepository, userRepo repositories.UserRepository, audit AuditLogger, mailer *EmailService, logger *slog.Logger) AnnouncementService {
	return &announcementService{
		announcementRepo: announcementRepo,
		userRepo:         userRepo,
		audit:            audit,
		mailer:           mailer,
		logger:           logger,
	}
}

func announcementVisibleTo(a *models.Announcement, viewer models.Identity) bool {
	if viewer.Role == models.RoleCoach || viewer.Role == models.RoleAdmin {
		return true
	}
	switch a.Target {
	case models.AudienceAll:
		return true
	case models.AudiencePlayers:
		if viewer.Role != models.RolePlayer {
			return false
		}
		if a.PlayerCategory == nil {
			return true
		}
		return viewer.PlayerCategory != nil && *viewer.PlayerCategory == *a.PlayerCategory
	case models.AudienceParents:
		return viewer.Role == models.RoleParent
	case models.AudienceCoaches:
		return false
	}
	return false
}

func (s *announcementService) List(ctx context.Context, viewer models.Identity) ([]models.Announcement, error) {
	announcements, err := s.announcementRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Announcement, 0, len(announcements))
	for i := range announcements {
		if announcementVisibleTo(&announcements[i], viewer) {
			visible = append(visible, announcements[i])
		}
	}
	return visible, nil
}

func (s *announcementService) Create(ctx context.Context, viewer models.Identity, input CreateAnnouncementInput) (*models.Announcement, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if len(title) < 3 || len(title) > 200 {
		fields["title"] = "must be between 3 and 200 characters"
	}
	if len(message) < 3 || len(message) > 5000 {
		fields["message"] = "must be between 3 and 5000 characters"
	}
	if !input.Target.ValidForAnnouncement() {
		fields["target"] = "must be one of all, players, parents, coaches"
	}
	if input.PlayerCategory != nil {
		if !input.PlayerCategory.Valid() {
			fields["playerCategory"] = "unknown player category"
		} else if input.Target != models.AudiencePlayers {
			fields["playerCategory"] = "can only be set when the target is players"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	announcement := &models.Announcement{
		Title:             title,
		Message:           message,
		Target:            input.Target,
		PlayerCategory:    input.PlayerCategory,
		Important:         input.Important,
		CreatedByID:       viewer.ID,
		CreatedByUsername: viewer.Username,
	}
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "announcement_created", "announcement", fmt.Sprint(announcement.ID), map[string]any{
		"title":     announcement.Title,
		"target":    announcement.Target,
		"important": announcement.Important,
	})

	if announcement.Important {
		s.notifyImportant(announcement)
	}
	return announcement, nil
}

func (s *announcementService) Delete(ctx context.Context, viewer models.Identity, announcementID int) error {
	if err := s.announcementRepo.Delete(ctx, announcementID); err != nil {
		return err
	}
	s.audit.Log(ctx, viewer.ID, "announcement_deleted", "announcement", fmt.Sprint(announcementID), nil)
	return nil
}

// notifyImportant mails the announcement to every audience member with an
// email on file. Delivery is best-effort and runs off the request path.
func (s *announcementService) notifyImportant(a *models.Announcement) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	announcement := *a
	go func() {
		ctx := context.Background()
		users, err := s.userRepo.List(ctx)
		if err != nil {
			s.logger.Warn("failed to list recipients for important announcement",
				slog.Int("announcement_id", announcement.ID),
				slog.Any("error", err),
			)
			return
		}

		recipients := make([]string, 0, len(users))
		for i := range users {
			u := &users[i]
			if !u.IsActive || u.Email == nil {
				continue
			}
			viewer := models.Identity{ID: u.ID, Username: u.Username, Role: u.Role, PlayerCategory: u.PlayerCategory}
			if announcementVisibleTo(&announcement, viewer) {
				recipients = append(recipients, *u.Email)
			}
		}
		if len(recipients) == 0 {
			return
		}

		if err := s.mailer.SendImportantAnnouncementEmail(recipients, announcement.Title, announcement.Message); err != nil {
			s.logger.Warn("important announcement email delivery failed",
				slog.Int("announcement_id", announcement.ID),
				slog.Any("error", err),
			)
		}
	}()
}
