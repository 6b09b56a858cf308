package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	List(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id int) error
}

type postgresAnnouncementRepository struct {
	db db.Querier
}

func NewPostgresAnnouncementRepository(q db.Querier) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: q}
}

func (r *postgresAnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	query := `
		INSERT INTO announcements (title, message, target, player_category, important, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		announcement.Title,
		announcement.Message,
		announcement.Target,
		categoryArg(announcement.PlayerCategory),
		announcement.Important,
		announcement.CreatedByID,
	).Scan(&announcement.ID, &announcement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert announcement: %w", err)
	}
	return nil
}

func (r *postgresAnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	query := `
		SELECT a.id, a.title, a.message, a.target, a.player_category, a.important,
		       a.created_by_id, u.username, a.created_at
		FROM announcements a
		JOIN users u ON u.id = a.created_by_id
		ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]models.Announcement, 0)
	for rows.Next() {
		var (
			a        models.Announcement
			category sql.NullString
		)
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Message,
			&a.Target,
			&category,
			&a.Important,
			&a.CreatedByID,
			&a.CreatedByUsername,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if category.Valid {
			pc := models.PlayerCategory(category.String)
			a.PlayerCategory = &pc
		}
		announcements = append(announcements, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *postgresAnnouncementRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}
