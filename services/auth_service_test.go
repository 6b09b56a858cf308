package services

import (
	"context"
	"testing"
	"time"

	"github.com/oskporuba/club-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	// MinCost keeps the test fast; the service itself hashes with its own cost.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthServiceForTest(userRepo *fakeUserRepo, now time.Time) *authService {
	svc := NewAuthService(userRepo, &fakeAudit{}).(*authService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.add(models.User{ID: 1, Username: "jozo", PasswordHash: hashForTest(t, "correct-horse"), Role: models.RolePlayer, IsActive: true})
	userRepo.add(models.User{ID: 2, Username: "frozen", PasswordHash: hashForTest(t, "whatever"), Role: models.RolePlayer, IsActive: false})

	svc := newAuthServiceForTest(userRepo, time.Now())

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login(context.Background(), LoginInput{Username: "jozo", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, "jozo", user.Username)
		assert.Empty(t, user.PasswordHash)
	})

	// Unknown user, wrong password and deactivated account all collapse into
	// the same error.
	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "jozo", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "correct-horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
	t.Run("deactivated account", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Username: "frozen", Password: "whatever"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestChangePasswordCooldown(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("inside the window returns remaining days", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		lastChange := now.Add(-5 * 24 * time.Hour)
		userRepo.add(models.User{ID: 1, Username: "jozo", PasswordHash: hashForTest(t, "old-password"), Role: models.RolePlayer, IsActive: true, LastPasswordChangeAt: &lastChange})

		svc := newAuthServiceForTest(userRepo, now)
		err := svc.ChangePassword(context.Background(), 1, "new-password-123")

		var cooldownErr *PasswordCooldownError
		require.ErrorAs(t, err, &cooldownErr)
		assert.Equal(t, 2, cooldownErr.RemainingDays)
	})

	t.Run("after the window succeeds and stamps the change", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		lastChange := now.Add(-8 * 24 * time.Hour)
		userRepo.add(models.User{ID: 1, Username: "jozo", PasswordHash: hashForTest(t, "old-password"), Role: models.RolePlayer, IsActive: true, LastPasswordChangeAt: &lastChange})

		svc := newAuthServiceForTest(userRepo, now)
		require.NoError(t, svc.ChangePassword(context.Background(), 1, "new-password-123"))

		user, err := userRepo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, user.LastPasswordChangeAt)
		assert.Equal(t, now.UTC(), *user.LastPasswordChangeAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password-123")))
	})

	t.Run("never changed before has no cooldown", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.add(models.User{ID: 1, Username: "jozo", PasswordHash: hashForTest(t, "old-password"), Role: models.RolePlayer, IsActive: true})

		svc := newAuthServiceForTest(userRepo, now)
		assert.NoError(t, svc.ChangePassword(context.Background(), 1, "new-password-123"))
	})

	t.Run("same password rejected", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.add(models.User{ID: 1, Username: "jozo", PasswordHash: hashForTest(t, "old-password"), Role: models.RolePlayer, IsActive: true})

		svc := newAuthServiceForTest(userRepo, now)
		err := svc.ChangePassword(context.Background(), 1, "old-password")
		assert.ErrorIs(t, err, ErrPasswordUnchanged)
	})
}
