package services

import (
	"testing"

	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authServiceTestEnv struct {
	db          *gorm.DB
	authService *AuthService
}

func setupAuthServiceTestEnv(t *testing.T) authServiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Farm{},
		&models.FarmMembership{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authServiceTestEnv{
		db:          db,
		authService: NewAuthService(repository.NewUserRepository(db)),
	}
}

func TestAuthService_Register(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	user, err := env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
		FullName: "Alice A",
	})
	require.NoError(t, err)
	require.Equal(t, models.SystemRoleFarmer, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "supersecret", user.PasswordHash)

	_, err = env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "supersecret",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.authService.Register(RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterShortPassword(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	_, err := env.authService.Register(RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAuthService_AuthenticateByUsernameOrEmail(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	registered, err := env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Nil(t, registered.LastLoginAt)

	byUsername, err := env.authService.Authenticate("alice", "supersecret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, byUsername.ID)

	byEmail, err := env.authService.Authenticate("alice@example.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, byEmail.ID)

	var stored models.User
	require.NoError(t, env.db.First(&stored, registered.ID).Error)
	require.NotNil(t, stored.LastLoginAt, "authenticate must stamp last login")
}

func TestAuthService_AuthenticateFailures(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	user, err := env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = env.authService.Authenticate("alice", "wrongpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.authService.Authenticate("nobody", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)

	_, err = env.authService.Authenticate("alice", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials, "inactive user must be rejected like a bad password")
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	user, err := env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	err = env.authService.ChangePassword(user.ID, "wrongpassword", "newpassword1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = env.authService.ChangePassword(user.ID, "supersecret", "newpassword1")
	require.NoError(t, err)

	_, err = env.authService.Authenticate("alice", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.authService.Authenticate("alice", "newpassword1")
	require.NoError(t, err)
}

func TestAuthService_GetActiveUser(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	user, err := env.authService.Register(RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	found, err := env.authService.GetActiveUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)

	_, err = env.authService.GetActiveUser(user.ID)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
