package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
)

type TrainingService interface {
	List(ctx context.Context, viewer models.Identity) ([]models.Training, error)
	Create(ctx context.Context, viewer models.Identity, input CreateTrainingInput) (*models.Training, error)
	SetAttendance(ctx context.Context, viewer models.Identity, trainingID int, playerUsername string, status models.AttendanceStatus) (*models.Training, error)
	Close(ctx context.Context, viewer models.Identity, trainingID int) (*models.Training, error)
	Delete(ctx context.Context, viewer models.Identity, trainingID int) error
	AutoCloseElapsed(ctx context.Context) error
}

type CreateTrainingInput struct {
	Date     string                  `json:"date"`
	Time     string                  `json:"time"`
	Type     models.TrainingType     `json:"type"`
	Duration int                     `json:"duration"`
	Category models.TrainingCategory `json:"category"`
	Note     *string                 `json:"note"`
}

type trainingService struct {
	trainingRepo repositories.TrainingRepository
	userRepo     repositories.UserRepository
	audit        AuditLogger
	live         LiveBroadcaster
	logger       *slog.Logger
	now          func() time.Time
}

func NewTrainingService(trainingRepo repositories.TrainingRepository, userRepo repositories.UserRepository, audit AuditLogger, live LiveBroadcaster, logger *slog.Logger) TrainingService {
	return &trainingService{
		trainingRepo: trainingRepo,
		userRepo:     userRepo,
		audit:        audit,
		live:         live,
		logger:       logger,
		now:          time.Now,
	}
}

// trainingVisibleTo applies the audience rules: admins see everything, coaches
// see the sessions they created, players and parents see the sessions whose
// training category covers their player category. A player with no category
// therefore sees nothing.
func trainingVisibleTo(training *models.Training, viewer models.Identity) bool {
	switch viewer.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCoach:
		return training.CreatedByID == viewer.ID
	case models.RolePlayer, models.RoleParent:
		if viewer.PlayerCategory == nil {
			return false
		}
		return models.TrainingCoversPlayerCategory(training.Category, *viewer.PlayerCategory)
	default:
		return false
	}
}

func (s *trainingService) List(ctx context.Context, viewer models.Identity) ([]models.Training, error) {
	trainings, err := s.trainingRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Training, 0, len(trainings))
	for i := range trainings {
		if trainingVisibleTo(&trainings[i], viewer) {
			visible = append(visible, trainings[i])
		}
	}
	return visible, nil
}

func (s *trainingService) Create(ctx context.Context, viewer models.Identity, input CreateTrainingInput) (*models.Training, error) {
	if err := validateTrainingInput(input); err != nil {
		return nil, err
	}

	training := &models.Training{
		Date:              input.Date,
		Time:              input.Time,
		Type:              input.Type,
		Duration:          input.Duration,
		Category:          input.Category,
		Note:              input.Note,
		CreatedByID:       viewer.ID,
		CreatedByUsername: viewer.Username,
	}
	if err := s.trainingRepo.Create(ctx, training); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "training_created", "training", fmt.Sprint(training.ID), map[string]any{
		"date":     training.Date,
		"time":     training.Time,
		"category": training.Category,
	})
	return training, nil
}

// SetAttendance upserts one (training, player) attendance row. Players answer
// for themselves only; coaches and admins can answer for any active player.
func (s *trainingService) SetAttendance(ctx context.Context, viewer models.Identity, trainingID int, playerUsername string, status models.AttendanceStatus) (*models.Training, error) {
	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "must be one of yes, no, unknown"}}
	}

	switch viewer.Role {
	case models.RolePlayer:
		if playerUsername != viewer.Username {
			return nil, ErrForbiddenOperation
		}
	case models.RoleCoach, models.RoleAdmin:
		if _, err := s.userRepo.GetByUsername(ctx, playerUsername); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbiddenOperation
	}

	training, err := s.trainingRepo.GetByID(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if !training.IsActive {
		return nil, ErrTrainingClosed
	}

	att := &models.TrainingAttendance{
		TrainingID:     training.ID,
		PlayerUsername: playerUsername,
		Status:         status,
		UpdatedByID:    viewer.ID,
	}
	if err := s.trainingRepo.UpsertAttendance(ctx, att); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "attendance_set", "training", fmt.Sprint(training.ID), map[string]any{
		"player": playerUsername,
		"status": status,
	})
	if s.live != nil {
		s.live.BroadcastToRoom("trainings", map[string]any{
			"type":       "TRAINING_ATTENDANCE_UPDATED",
			"trainingId": training.ID,
			"player":     playerUsername,
			"status":     status,
		})
	}
	return s.trainingRepo.GetByID(ctx, training.ID)
}

func (s *trainingService) Close(ctx context.Context, viewer models.Identity, trainingID int) (*models.Training, error) {
	training, err := s.trainingRepo.GetByID(ctx, trainingID)
	if err != nil {
		return nil, err
	}
	if viewer.Role != models.RoleAdmin && training.CreatedByID != viewer.ID {
		return nil, ErrForbiddenOperation
	}
	if !training.IsActive {
		return nil, ErrTrainingAlreadyClosed
	}

	closed, err := s.trainingRepo.Close(ctx, training.ID)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, viewer.ID, "training_closed", "training", fmt.Sprint(training.ID), nil)
	s.broadcastClosed(training.ID)
	return closed, nil
}

func (s *trainingService) Delete(ctx context.Context, viewer models.Identity, trainingID int) error {
	training, err := s.trainingRepo.GetByID(ctx, trainingID)
	if err != nil {
		return err
	}
	if viewer.Role != models.RoleAdmin && training.CreatedByID != viewer.ID {
		return ErrForbiddenOperation
	}

	if err := s.trainingRepo.Delete(ctx, training.ID); err != nil {
		return err
	}
	s.audit.Log(ctx, viewer.ID, "training_deleted", "training", fmt.Sprint(training.ID), nil)
	return nil
}

// AutoCloseElapsed closes every active training whose scheduled end lies in
// the past. It is called periodically from the scheduler goroutine; partial
// failures are logged and the sweep continues.
func (s *trainingService) AutoCloseElapsed(ctx context.Context) error {
	trainings, err := s.trainingRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active trainings: %w", err)
	}

	now := s.now()
	for i := range trainings {
		training := &trainings[i]
		end, err := trainingEnd(training)
		if err != nil {
			s.logger.Warn("skipping training with unparsable schedule",
				slog.Int("training_id", training.ID),
				slog.Any("error", err),
			)
			continue
		}
		if end.After(now) {
			continue
		}

		if _, err := s.trainingRepo.Close(ctx, training.ID); err != nil {
			s.logger.Error("failed to auto-close training",
				slog.Int("training_id", training.ID),
				slog.Any("error", err),
			)
			continue
		}
		s.broadcastClosed(training.ID)
	}
	return nil
}

func (s *trainingService) broadcastClosed(trainingID int) {
	if s.live == nil {
		return
	}
	s.live.BroadcastToRoom("trainings", map[string]any{
		"type":       "TRAINING_CLOSED",
		"trainingId": trainingID,
	})
}

func trainingEnd(t *models.Training) (time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", t.Date+" "+t.Time, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(t.Duration) * time.Minute), nil
}

func validateTrainingInput(input CreateTrainingInput) error {
	fields := map[string]string{}

	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		fields["date"] = "must be a valid date in YYYY-MM-DD format"
	}
	if start, err := time.Parse("15:04", input.Time); err != nil {
		fields["time"] = "must be a valid time in HH:MM format"
	} else if start.Minute()%15 != 0 {
		fields["time"] = "must fall on a 15-minute boundary (00, 15, 30, 45)"
	}
	if !input.Type.Valid() {
		fields["type"] = "unknown training type"
	}
	if input.Duration < 30 || input.Duration > 180 {
		fields["duration"] = "must be between 30 and 180 minutes"
	}
	if !input.Category.Valid() {
		fields["category"] = "unknown training category"
	}
	if input.Note != nil && len(strings.TrimSpace(*input.Note)) > 500 {
		fields["note"] = "must be at most 500 characters"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
