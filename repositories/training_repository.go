package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
)

var ErrTrainingNotFound = errors.New("training not found")

type TrainingRepository interface {
	Create(ctx context.Context, training *models.Training) error
	GetByID(ctx context.Context, id int) (*models.Training, error)
	List(ctx context.Context) ([]models.Training, error)
	Close(ctx context.Context, id int) (*models.Training, error)
	Delete(ctx context.Context, id int) error
	ListActive(ctx context.Context) ([]models.Training, error)
	UpsertAttendance(ctx context.Context, att *models.TrainingAttendance) error
}

type postgresTrainingRepository struct {
	db db.Querier
}

func NewPostgresTrainingRepository(q db.Querier) TrainingRepository {
	return &postgresTrainingRepository{db: q}
}

const trainingColumns = `
	t.id, t.date, t.time, t.type, t.duration, t.category, t.note, t.is_active,
	t.created_by_id, u.username, t.created_at`

func (r *postgresTrainingRepository) scanTraining(s scanner) (*models.Training, error) {
	var (
		training models.Training
		note     sql.NullString
	)
	err := s.Scan(
		&training.ID,
		&training.Date,
		&training.Time,
		&training.Type,
		&training.Duration,
		&training.Category,
		&note,
		&training.IsActive,
		&training.CreatedByID,
		&training.CreatedByUsername,
		&training.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if note.Valid {
		n := note.String
		training.Note = &n
	}
	training.Attendance = make([]models.TrainingAttendance, 0)
	return &training, nil
}

func (r *postgresTrainingRepository) Create(ctx context.Context, training *models.Training) error {
	query := `
		INSERT INTO trainings (date, time, type, duration, category, note, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at`

	err := r.db.QueryRowContext(ctx, query,
		training.Date,
		training.Time,
		training.Type,
		training.Duration,
		training.Category,
		nullableString(training.Note),
		training.CreatedByID,
	).Scan(&training.ID, &training.IsActive, &training.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert training: %w", err)
	}
	training.Attendance = make([]models.TrainingAttendance, 0)
	return nil
}

func (r *postgresTrainingRepository) GetByID(ctx context.Context, id int) (*models.Training, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM trainings t
		JOIN users u ON u.id = t.created_by_id
		WHERE t.id = $1`, trainingColumns)

	training, err := r.scanTraining(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainingNotFound
		}
		return nil, fmt.Errorf("failed to scan training: %w", err)
	}

	if err := r.attachAttendance(ctx, []*models.Training{training}); err != nil {
		return nil, err
	}
	return training, nil
}

func (r *postgresTrainingRepository) list(ctx context.Context, where string, args ...any) ([]models.Training, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM trainings t
		JOIN users u ON u.id = t.created_by_id`, trainingColumns)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY t.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainings := make([]models.Training, 0)
	for rows.Next() {
		training, scanErr := r.scanTraining(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		trainings = append(trainings, *training)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Pointers are taken only after the slice stops growing, otherwise a
	// reallocation would leave them aimed at the old backing array.
	refs := make([]*models.Training, 0, len(trainings))
	for i := range trainings {
		refs = append(refs, &trainings[i])
	}
	if err := r.attachAttendance(ctx, refs); err != nil {
		return nil, err
	}
	return trainings, nil
}

func (r *postgresTrainingRepository) List(ctx context.Context) ([]models.Training, error) {
	return r.list(ctx, "")
}

func (r *postgresTrainingRepository) ListActive(ctx context.Context) ([]models.Training, error) {
	return r.list(ctx, "t.is_active = TRUE")
}

func (r *postgresTrainingRepository) attachAttendance(ctx context.Context, trainings []*models.Training) error {
	if len(trainings) == 0 {
		return nil
	}

	byID := make(map[int]*models.Training, len(trainings))
	ids := make([]int32, 0, len(trainings))
	for _, t := range trainings {
		byID[t.ID] = t
		ids = append(ids, int32(t.ID))
	}

	query := `
		SELECT id, training_id, player_username, status, updated_by_id, updated_at
		FROM training_attendances
		WHERE training_id = ANY($1)
		ORDER BY player_username ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var att models.TrainingAttendance
		if err := rows.Scan(&att.ID, &att.TrainingID, &att.PlayerUsername, &att.Status, &att.UpdatedByID, &att.UpdatedAt); err != nil {
			return err
		}
		if t, ok := byID[att.TrainingID]; ok {
			t.Attendance = append(t.Attendance, att)
		}
	}
	return rows.Err()
}

func (r *postgresTrainingRepository) Close(ctx context.Context, id int) (*models.Training, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE trainings SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if err := checkAffectedRows(result, ErrTrainingNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresTrainingRepository) Delete(ctx context.Context, id int) error {
	// Attendance rows go via ON DELETE CASCADE; the explicit delete keeps the
	// behavior correct on stores restored without the constraint.
	if _, err := r.db.ExecContext(ctx, "DELETE FROM training_attendances WHERE training_id = $1", id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM trainings WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTrainingNotFound)
}

// UpsertAttendance keeps at most one row per (training, player); a repeated
// submission overwrites status, updater and timestamp.
func (r *postgresTrainingRepository) UpsertAttendance(ctx context.Context, att *models.TrainingAttendance) error {
	query := `
		INSERT INTO training_attendances (training_id, player_username, status, updated_by_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (training_id, player_username)
		DO UPDATE SET status = EXCLUDED.status, updated_by_id = EXCLUDED.updated_by_id, updated_at = EXCLUDED.updated_at
		RETURNING id, updated_at`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		att.TrainingID,
		att.PlayerUsername,
		att.Status,
		att.UpdatedByID,
		now,
	).Scan(&att.ID, &att.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return nil
}
