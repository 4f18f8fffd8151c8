package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/database"
	"github.com/agrodata/farmdata-api/internal/dto"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
	farmService *services.FarmService
	tokens      *auth.TokenService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Farm{},
		&models.FarmMembership{},
		&models.Field{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)
	farmService := services.NewFarmService(repository.NewFarmRepository(db), userRepo)
	audit := services.NewAuditService(repository.NewAuditRepository(db))
	tokens := auth.NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)
	handler := NewAuthHandler(authService, farmService, audit, tokens)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
		farmService: farmService,
		tokens:      tokens,
	}
}

func newAuthTestRouter(env authTestEnv) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/signup", env.handler.Signup)
	r.POST("/api/auth/login", env.handler.Login)
	r.POST("/api/auth/refresh", env.handler.Refresh)
	r.POST("/api/auth/logout", env.handler.Logout)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	w := postJSON(t, r, "/api/auth/signup", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "newuser", response.Username)
	require.Equal(t, models.SystemRoleFarmer, response.Role)

	var entry models.AuditLog
	require.NoError(t, env.db.
		Where("action = ?", services.AuditActionRegister).
		First(&entry).Error)
	require.Equal(t, response.ID, entry.UserID)
	require.NotEmpty(t, entry.IPAddress, "audit entry must carry the client address")
}

func TestAuthHandler_SignupConflict(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	payload := map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, r, "/api/auth/signup", payload).Code)
	require.Equal(t, http.StatusConflict, postJSON(t, r, "/api/auth/signup", payload).Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	farm, err := env.farmService.CreateFarm(services.CreateFarmInput{
		BIN:       "100000000001",
		Name:      "Home Farm",
		CreatorID: &user.ID,
	})
	require.NoError(t, err)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing",
		"password":   "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LoginResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "existing", response.User.Username)
	require.NotNil(t, response.ActiveFarmID)
	require.Equal(t, farm.ID, *response.ActiveFarmID)
	require.NotEmpty(t, response.Tokens.AccessToken)
	require.NotEmpty(t, response.Tokens.RefreshToken)
	require.Equal(t, "bearer", response.Tokens.TokenType)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	// The pair is usable: the access token authenticates, the refresh
	// token does not pass as an access token.
	claims, err := env.tokens.Parse(response.Tokens.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	parsedID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, parsedID)

	_, err = env.tokens.Parse(response.Tokens.RefreshToken, auth.TokenTypeAccess)
	require.Error(t, err)
}

func TestAuthHandler_LoginByEmail(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing@example.com",
		"password":   "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LoginResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Nil(t, response.ActiveFarmID, "user without memberships logs in unbound")
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "existing",
		"password":   "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	refreshToken, err := env.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)

	w := postJSON(t, r, "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TokenPairDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)
}

func TestAuthHandler_RefreshRejectsAccessToken(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	accessToken, err := env.tokens.IssueAccessToken(user.ID)
	require.NoError(t, err)

	w := postJSON(t, r, "/api/auth/refresh", map[string]string{
		"refresh_token": accessToken,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshDeactivatedUser(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthTestRouter(env)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	refreshToken, err := env.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)

	w := postJSON(t, r, "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "current-user",
		Email:    "current@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	farmID := uint64(7)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyAuth, auth.NewContext(user, &farmID))

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		User         dto.UserDTO `json:"user"`
		ActiveFarmID *uint64     `json:"active_farm_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.User.Username)
	require.NotNil(t, response.ActiveFarmID)
	require.Equal(t, farmID, *response.ActiveFarmID)
}
