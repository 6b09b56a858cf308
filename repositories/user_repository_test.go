package repositories

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userBaseTestColumns = []string{"id", "username", "password_hash", "role", "player_category", "is_active", "last_password_change_at", "created_at"}

func TestUserReadsAgainstReducedSchema(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := [][]driver.Value{
		{int64(7), "jozko.mrkvicka", "hashed", "player", "ziaci", true, nil, now},
	}
	dbConn := newStubDB(stubResult{match: "FROM users", columns: userBaseTestColumns, rows: rows})
	defer dbConn.Close()

	repo := NewPostgresUserRepository(dbConn, db.SchemaCapabilities{})

	// Queries against the pre-migration store must not name the missing
	// columns at all.
	cols := repo.(*postgresUserRepository).selectColumns()
	assert.NotContains(t, cols, "email")
	assert.NotContains(t, cols, "shirt_number")

	user, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "jozko.mrkvicka", user.Username)
	assert.Equal(t, models.RolePlayer, user.Role)
	require.NotNil(t, user.PlayerCategory)
	assert.Equal(t, models.PlayerCategoryZiaci, *user.PlayerCategory)
	assert.True(t, user.IsActive)

	// The record shape matches the full schema, with the optional fields nil.
	assert.Nil(t, user.Email)
	assert.Nil(t, user.ShirtNumber)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Nil(t, users[0].Email)
	assert.Nil(t, users[0].ShirtNumber)
}

func TestUserReadsAgainstFullSchema(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	cols := append(append([]string{}, userBaseTestColumns...), "email", "shirt_number")
	rows := [][]driver.Value{
		{int64(7), "jozko.mrkvicka", "hashed", "player", "ziaci", true, nil, now, "jozko@example.com", int64(9)},
	}
	dbConn := newStubDB(stubResult{match: "FROM users", columns: cols, rows: rows})
	defer dbConn.Close()

	repo := NewPostgresUserRepository(dbConn, db.FullSchema())

	selected := repo.(*postgresUserRepository).selectColumns()
	assert.True(t, strings.HasSuffix(selected, "email, shirt_number"))

	user, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, user.Email)
	assert.Equal(t, "jozko@example.com", *user.Email)
	require.NotNil(t, user.ShirtNumber)
	assert.Equal(t, 9, *user.ShirtNumber)
}
