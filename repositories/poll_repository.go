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

var ErrPollNotFound = errors.New("poll not found")

type PollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	GetByID(ctx context.Context, id int) (*models.Poll, error)
	List(ctx context.Context) ([]models.Poll, error)
	Close(ctx context.Context, id int, closedAt time.Time) (*models.Poll, error)
	Delete(ctx context.Context, id int) error
	UpsertVote(ctx context.Context, vote *models.PollVote) error
}

type postgresPollRepository struct {
	db db.Querier
}

func NewPostgresPollRepository(q db.Querier) PollRepository {
	return &postgresPollRepository{db: q}
}

const pollColumns = `
	p.id, p.question, p.options, p.target, p.player_category, p.active,
	p.closes_at, p.closed_at, p.created_by_id, u.username, p.created_at`

func (r *postgresPollRepository) scanPoll(s scanner) (*models.Poll, error) {
	var (
		poll     models.Poll
		options  pq.StringArray
		category sql.NullString
		closesAt sql.NullTime
		closedAt sql.NullTime
	)
	err := s.Scan(
		&poll.ID,
		&poll.Question,
		&options,
		&poll.Target,
		&category,
		&poll.Active,
		&closesAt,
		&closedAt,
		&poll.CreatedByID,
		&poll.CreatedByUsername,
		&poll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	poll.Options = []string(options)
	if category.Valid {
		pc := models.PlayerCategory(category.String)
		poll.PlayerCategory = &pc
	}
	if closesAt.Valid {
		t := closesAt.Time
		poll.ClosesAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time
		poll.ClosedAt = &t
	}
	poll.Votes = make([]models.PollVote, 0)
	return &poll, nil
}

func (r *postgresPollRepository) Create(ctx context.Context, poll *models.Poll) error {
	query := `
		INSERT INTO polls (question, options, target, player_category, closes_at, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, active, created_at`

	err := r.db.QueryRowContext(ctx, query,
		poll.Question,
		pq.Array(poll.Options),
		poll.Target,
		categoryArg(poll.PlayerCategory),
		nullableTime(poll.ClosesAt),
		poll.CreatedByID,
	).Scan(&poll.ID, &poll.Active, &poll.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	poll.Votes = make([]models.PollVote, 0)
	return nil
}

func (r *postgresPollRepository) GetByID(ctx context.Context, id int) (*models.Poll, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM polls p
		JOIN users u ON u.id = p.created_by_id
		WHERE p.id = $1`, pollColumns)

	poll, err := r.scanPoll(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to scan poll: %w", err)
	}

	if err := r.attachVotes(ctx, []*models.Poll{poll}); err != nil {
		return nil, err
	}
	return poll, nil
}

func (r *postgresPollRepository) List(ctx context.Context) ([]models.Poll, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM polls p
		JOIN users u ON u.id = p.created_by_id
		ORDER BY p.created_at DESC`, pollColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := make([]models.Poll, 0)
	for rows.Next() {
		poll, scanErr := r.scanPoll(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		polls = append(polls, *poll)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Pointers are taken only after the slice stops growing, otherwise a
	// reallocation would leave them aimed at the old backing array.
	refs := make([]*models.Poll, 0, len(polls))
	for i := range polls {
		refs = append(refs, &polls[i])
	}
	if err := r.attachVotes(ctx, refs); err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *postgresPollRepository) attachVotes(ctx context.Context, polls []*models.Poll) error {
	if len(polls) == 0 {
		return nil
	}

	byID := make(map[int]*models.Poll, len(polls))
	ids := make([]int32, 0, len(polls))
	for _, p := range polls {
		byID[p.ID] = p
		ids = append(ids, int32(p.ID))
	}

	query := `
		SELECT v.poll_id, v.user_id, v.option_idx, u.username
		FROM poll_votes v
		JOIN users u ON u.id = v.user_id
		WHERE v.poll_id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var vote models.PollVote
		if err := rows.Scan(&vote.PollID, &vote.UserID, &vote.OptionIdx, &vote.Username); err != nil {
			return err
		}
		if p, ok := byID[vote.PollID]; ok {
			p.Votes = append(p.Votes, vote)
		}
	}
	return rows.Err()
}

func (r *postgresPollRepository) Close(ctx context.Context, id int, closedAt time.Time) (*models.Poll, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE polls SET active = FALSE, closed_at = $1 WHERE id = $2",
		closedAt, id,
	)
	if err != nil {
		return nil, err
	}
	if err := checkAffectedRows(result, ErrPollNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresPollRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM poll_votes WHERE poll_id = $1", id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM polls WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPollNotFound)
}

// UpsertVote enforces one vote per (poll, user); a re-vote replaces the
// chosen option. Concurrent upserts for the same key are resolved by the
// store, last commit wins.
func (r *postgresPollRepository) UpsertVote(ctx context.Context, vote *models.PollVote) error {
	query := `
		INSERT INTO poll_votes (poll_id, user_id, option_idx)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, user_id)
		DO UPDATE SET option_idx = EXCLUDED.option_idx`

	if _, err := r.db.ExecContext(ctx, query, vote.PollID, vote.UserID, vote.OptionIdx); err != nil {
		return fmt.Errorf("failed to upsert poll vote: %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
