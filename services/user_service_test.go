package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/oskporuba/club-backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserServiceForTest(userRepo *fakeUserRepo) UserService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(userRepo, &fakeAudit{}, nil, logger)
}

func TestUserCreateRoleAttributes(t *testing.T) {
	base := CreateUserInput{
		Username: "jozko.mrkvicka",
		Password: "secret-password",
		Role:     models.RolePlayer,
	}

	tests := []struct {
		name    string
		mutate  func(*CreateUserInput)
		wantErr error
	}{
		{"player without category", func(in *CreateUserInput) {}, ErrCategoryRequired},
		{"coach with category", func(in *CreateUserInput) {
			in.Role = models.RoleCoach
			in.PlayerCategory = categoryPtr(models.PlayerCategoryZiaci)
		}, ErrCategoryOnlyForPlayers},
		{"coach with shirt number", func(in *CreateUserInput) {
			in.Role = models.RoleCoach
			n := 10
			in.ShirtNumber = &n
		}, ErrShirtNumberOnlyForPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newUserServiceForTest(newFakeUserRepo())
			input := base
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), adminIdentity, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("player with category and shirt number", func(t *testing.T) {
		svc := newUserServiceForTest(newFakeUserRepo())
		input := base
		input.PlayerCategory = categoryPtr(models.PlayerCategoryZiaci)
		n := 7
		input.ShirtNumber = &n

		user, err := svc.Create(context.Background(), adminIdentity, input)
		require.NoError(t, err)
		assert.True(t, user.IsActive)
		assert.Empty(t, user.PasswordHash)
		require.NotNil(t, user.ShirtNumber)
		assert.Equal(t, 7, *user.ShirtNumber)
	})

	t.Run("parent may carry the child's category", func(t *testing.T) {
		svc := newUserServiceForTest(newFakeUserRepo())
		input := base
		input.Role = models.RoleParent
		input.PlayerCategory = categoryPtr(models.PlayerCategoryPripravkaU9)

		_, err := svc.Create(context.Background(), adminIdentity, input)
		assert.NoError(t, err)
	})

	t.Run("username is normalized to lowercase", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := newUserServiceForTest(repo)
		input := base
		input.Username = "  Jozko.Mrkvicka "
		input.Role = models.RoleCoach

		user, err := svc.Create(context.Background(), adminIdentity, input)
		require.NoError(t, err)
		assert.Equal(t, "jozko.mrkvicka", user.Username)
	})
}

func TestUserSelfProtection(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(models.User{ID: adminIdentity.ID, Username: "admin", Role: models.RoleAdmin, IsActive: true})
	svc := newUserServiceForTest(repo)

	t.Run("admin cannot deactivate themselves", func(t *testing.T) {
		_, err := svc.SetActiveStatus(context.Background(), adminIdentity, adminIdentity.ID, false)
		assert.ErrorIs(t, err, ErrCannotDeactivateSelf)
	})

	t.Run("admin can reactivate themselves", func(t *testing.T) {
		_, err := svc.SetActiveStatus(context.Background(), adminIdentity, adminIdentity.ID, true)
		assert.NoError(t, err)
	})

	t.Run("admin cannot demote themselves", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), adminIdentity, adminIdentity.ID, UpdateProfileInput{Role: models.RoleCoach})
		assert.ErrorIs(t, err, ErrCannotDemoteSelf)
	})

	t.Run("admin can demote someone else", func(t *testing.T) {
		other := repo.add(models.User{Username: "second.admin", Role: models.RoleAdmin, IsActive: true})
		user, err := svc.UpdateProfile(context.Background(), adminIdentity, other.ID, UpdateProfileInput{Role: models.RoleCoach})
		require.NoError(t, err)
		assert.Equal(t, models.RoleCoach, user.Role)
	})
}

func TestResetPasswordClearsCooldown(t *testing.T) {
	repo := newFakeUserRepo()
	changed := time.Now().Add(-2 * 24 * time.Hour)
	target := repo.add(models.User{Username: "jozo", Role: models.RolePlayer, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci), IsActive: true, LastPasswordChangeAt: &changed})
	svc := newUserServiceForTest(repo)

	t.Run("too short password rejected", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), adminIdentity, target.ID, "short")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "newPassword")
	})

	t.Run("reset replaces the hash and drops the change stamp", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(context.Background(), adminIdentity, target.ID, "fresh-password"))

		stored, err := repo.GetByID(context.Background(), target.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastPasswordChangeAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("fresh-password")))
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), adminIdentity, 999, "fresh-password")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})
}

func TestListPlayersRoster(t *testing.T) {
	repo := newFakeUserRepo()
	n := 9
	repo.add(models.User{Username: "jozko.mrkvicka", Role: models.RolePlayer, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci), ShirtNumber: &n, IsActive: true})
	repo.add(models.User{Username: "inactive.player", Role: models.RolePlayer, PlayerCategory: categoryPtr(models.PlayerCategoryZiaci), IsActive: false})
	repo.add(models.User{Username: "coach", Role: models.RoleCoach, IsActive: true})

	svc := newUserServiceForTest(repo)
	players, err := svc.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)

	assert.Equal(t, "jozko.mrkvicka", players[0].Username)
	assert.Equal(t, "Jozko Mrkvicka", players[0].FullName)
	require.NotNil(t, players[0].ShirtNumber)
	assert.Equal(t, 9, *players[0].ShirtNumber)
	assert.Equal(t, models.PlayerStats{}, players[0].Stats)
}
