package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameConflict  = errors.New("username is already in use")
	ErrUserEmailConflict = errors.New("email address is already in use")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListActivePlayers(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetActiveStatus(ctx context.Context, id int, isActive bool) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error
	ResetPassword(ctx context.Context, id int, passwordHash string) error
	UpdateProfile(ctx context.Context, id int, email *string, role models.UserRole, category *models.PlayerCategory, shirtNumber *int) (*models.User, error)
}

type postgresUserRepository struct {
	db   db.Querier
	caps db.SchemaCapabilities
}

// NewPostgresUserRepository branches on the schema capabilities detected at
// startup: against a store missing the optional email/shirt_number columns it
// reads and writes the reduced column set and leaves the fields nil.
func NewPostgresUserRepository(q db.Querier, caps db.SchemaCapabilities) UserRepository {
	return &postgresUserRepository{db: q, caps: caps}
}

// baseColumns are always present; email and shirt_number are appended only
// when the deployed schema has them, so the same scan order works for both
// shapes.
const userBaseColumns = "id, username, password_hash, role, player_category, is_active, last_password_change_at, created_at"

func (r *postgresUserRepository) selectColumns() string {
	cols := userBaseColumns
	if r.caps.HasUserEmail {
		cols += ", email"
	}
	if r.caps.HasUserShirtNumber {
		cols += ", shirt_number"
	}
	return cols
}

func (r *postgresUserRepository) scanUser(s scanner) (*models.User, error) {
	var (
		user        models.User
		category    sql.NullString
		lastChange  sql.NullTime
		email       sql.NullString
		shirtNumber sql.NullInt64
	)

	dest := []any{
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&category,
		&user.IsActive,
		&lastChange,
		&user.CreatedAt,
	}
	if r.caps.HasUserEmail {
		dest = append(dest, &email)
	}
	if r.caps.HasUserShirtNumber {
		dest = append(dest, &shirtNumber)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if category.Valid {
		pc := models.PlayerCategory(category.String)
		user.PlayerCategory = &pc
	}
	if lastChange.Valid {
		t := lastChange.Time
		user.LastPasswordChangeAt = &t
	}
	if email.Valid {
		e := email.String
		user.Email = &e
	}
	if shirtNumber.Valid {
		n := int(shirtNumber.Int64)
		user.ShirtNumber = &n
	}

	return &user, nil
}

func (r *postgresUserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s", r.selectColumns(), where)

	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUndefinedColumn(err) {
			return nil, ErrSchemaOutOfSync
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *postgresUserRepository) list(ctx context.Context, where string, args ...any) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users", r.selectColumns())
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY username ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUndefinedColumn(err) {
			return nil, ErrSchemaOutOfSync
		}
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, scanErr := r.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, "")
}

func (r *postgresUserRepository) ListActivePlayers(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, "role = $1 AND is_active = TRUE", models.RolePlayer)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	cols := []string{"username", "password_hash", "role", "player_category", "is_active"}
	args := []any{user.Username, user.PasswordHash, user.Role, categoryArg(user.PlayerCategory), user.IsActive}

	if r.caps.HasUserEmail {
		cols = append(cols, "email")
		args = append(args, nullableString(user.Email))
	} else {
		user.Email = nil
	}
	if r.caps.HasUserShirtNumber {
		cols = append(cols, "shirt_number")
		args = append(args, nullableInt(user.ShirtNumber))
	} else {
		user.ShirtNumber = nil
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO users (%s) VALUES (%s) RETURNING id, created_at",
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return r.mapWriteError(err)
	}
	return nil
}

func (r *postgresUserRepository) SetActiveStatus(ctx context.Context, id int, isActive bool) (*models.User, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE users SET is_active = $1 WHERE id = $2", isActive, id)
	if err != nil {
		return nil, r.mapWriteError(err)
	}
	if err := checkAffectedRows(result, ErrUserNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, last_password_change_at = $2 WHERE id = $3",
		passwordHash, changedAt, id,
	)
	if err != nil {
		return r.mapWriteError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// ResetPassword clears last_password_change_at so the account can immediately
// replace the admin-issued password.
func (r *postgresUserRepository) ResetPassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, last_password_change_at = NULL WHERE id = $2",
		passwordHash, id,
	)
	if err != nil {
		return r.mapWriteError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id int, email *string, role models.UserRole, category *models.PlayerCategory, shirtNumber *int) (*models.User, error) {
	sets := []string{"role = $1", "player_category = $2"}
	args := []any{role, categoryArg(category)}

	if r.caps.HasUserEmail {
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)+1))
		args = append(args, nullableString(email))
	}
	if r.caps.HasUserShirtNumber {
		sets = append(sets, fmt.Sprintf("shirt_number = $%d", len(args)+1))
		args = append(args, nullableInt(shirtNumber))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapWriteError(err)
	}
	if err := checkAffectedRows(result, ErrUserNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresUserRepository) mapWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "users_username_key"):
		return ErrUsernameConflict
	case isUniqueViolation(err, "users_email_key"):
		return ErrUserEmailConflict
	case isUndefinedColumn(err):
		// The reduced write still referenced a missing column: the capability
		// snapshot is stale or the schema drifted mid-flight.
		return ErrSchemaOutOfSync
	default:
		return err
	}
}

func categoryArg(c *models.PlayerCategory) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
