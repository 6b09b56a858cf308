package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
)

var ErrBlogPostNotFound = errors.New("blog post not found")

type BlogRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id int) (*models.BlogPost, error)
	List(ctx context.Context) ([]models.BlogPost, error)
	SetCoverURL(ctx context.Context, id int, coverURL string) (*models.BlogPost, error)
	Delete(ctx context.Context, id int) error
}

type postgresBlogRepository struct {
	db db.Querier
}

func NewPostgresBlogRepository(q db.Querier) BlogRepository {
	return &postgresBlogRepository{db: q}
}

const blogColumns = `
	b.id, b.title, b.content, b.cover_url, b.published,
	b.created_by_id, u.username, b.created_at, b.updated_at`

func (r *postgresBlogRepository) scanPost(s scanner) (*models.BlogPost, error) {
	var (
		post     models.BlogPost
		coverURL sql.NullString
	)
	err := s.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&coverURL,
		&post.Published,
		&post.CreatedByID,
		&post.CreatedByUsername,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if coverURL.Valid {
		u := coverURL.String
		post.CoverURL = &u
	}
	return &post, nil
}

func (r *postgresBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	query := `
		INSERT INTO blog_posts (title, content, published, created_by_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		post.Title,
		post.Content,
		post.Published,
		post.CreatedByID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert blog post: %w", err)
	}
	return nil
}

func (r *postgresBlogRepository) GetByID(ctx context.Context, id int) (*models.BlogPost, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blog_posts b
		JOIN users u ON u.id = b.created_by_id
		WHERE b.id = $1`, blogColumns)

	post, err := r.scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogPostNotFound
		}
		return nil, fmt.Errorf("failed to scan blog post: %w", err)
	}
	return post, nil
}

func (r *postgresBlogRepository) List(ctx context.Context) ([]models.BlogPost, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM blog_posts b
		JOIN users u ON u.id = b.created_by_id
		ORDER BY b.created_at DESC`, blogColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.BlogPost, 0)
	for rows.Next() {
		post, scanErr := r.scanPost(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		posts = append(posts, *post)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postgresBlogRepository) SetCoverURL(ctx context.Context, id int, coverURL string) (*models.BlogPost, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE blog_posts SET cover_url = $1, updated_at = $2 WHERE id = $3",
		coverURL, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, err
	}
	if err := checkAffectedRows(result, ErrBlogPostNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresBlogRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM blog_posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBlogPostNotFound)
}
