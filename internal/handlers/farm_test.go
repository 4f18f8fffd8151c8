package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/database"
	"github.com/agrodata/farmdata-api/internal/dto"
	"github.com/agrodata/farmdata-api/internal/middleware"
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

type farmTestEnv struct {
	db          *gorm.DB
	handler     *FarmHandler
	farmService *services.FarmService
}

func setupFarmTestEnv(t *testing.T) farmTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Farm{},
		&models.FarmMembership{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	farmService := services.NewFarmService(repository.NewFarmRepository(db), userRepo)
	audit := services.NewAuditService(repository.NewAuditRepository(db))
	handler := NewFarmHandler(farmService, audit)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return farmTestEnv{
		db:          db,
		handler:     handler,
		farmService: farmService,
	}
}

// newFarmTestRouter wires the farm routes behind a stub auth middleware so
// each test drives the router as a fixed principal.
func newFarmTestRouter(env farmTestEnv, ctx *auth.Context) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyAuth, ctx)
		c.Set(constants.ContextKeyUserID, ctx.UserID())
	})

	r.POST("/api/farms", env.handler.CreateFarm)
	r.GET("/api/farms", env.handler.ListFarms)
	r.GET("/api/farms/:id", middleware.RequireFarmAccess(), env.handler.GetFarm)
	r.POST("/api/farms/:id/switch", env.handler.SwitchFarm)
	r.POST("/api/farms/:id/primary", env.handler.SetPrimary)
	r.POST("/api/farms/:id/members", middleware.RequireFarmRole(models.FarmRoleAdmin), env.handler.AddMember)
	r.DELETE("/api/farms/:id/members/:user_id", middleware.RequireFarmRole(models.FarmRoleAdmin), env.handler.RemoveMember)
	return r
}

func createFarmHandlerTestUser(t *testing.T, db *gorm.DB, username string, role models.SystemRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doRequest(t *testing.T, r *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	return w
}

func TestFarmHandler_CreateFarm(t *testing.T) {
	env := setupFarmTestEnv(t)

	user := createFarmHandlerTestUser(t, env.db, "owner", models.SystemRoleFarmer)
	r := newFarmTestRouter(env, auth.NewContext(user, nil))

	w := doRequest(t, r, http.MethodPost, "/api/farms", map[string]interface{}{
		"bin":    "100000000001",
		"name":   "Home Farm",
		"region": "Akmola",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.FarmDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Home Farm", response.Name)
	require.Equal(t, "100000000001", response.BIN)

	// The creator holds the admin role and the farm is their primary.
	var membership models.FarmMembership
	require.NoError(t, env.db.
		Where("user_id = ? AND farm_id = ?", user.ID, response.ID).
		First(&membership).Error)
	require.Equal(t, models.FarmRoleAdmin, membership.Role)
	require.True(t, membership.IsPrimary)
}

func TestFarmHandler_CreateFarmInvalidBIN(t *testing.T) {
	env := setupFarmTestEnv(t)

	user := createFarmHandlerTestUser(t, env.db, "owner", models.SystemRoleFarmer)
	r := newFarmTestRouter(env, auth.NewContext(user, nil))

	w := doRequest(t, r, http.MethodPost, "/api/farms", map[string]interface{}{
		"bin":  "not-a-bin",
		"name": "Home Farm",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFarmHandler_ListFarms(t *testing.T) {
	env := setupFarmTestEnv(t)

	member := createFarmHandlerTestUser(t, env.db, "member", models.SystemRoleFarmer)
	outsider := createFarmHandlerTestUser(t, env.db, "outsider", models.SystemRoleFarmer)
	admin := createFarmHandlerTestUser(t, env.db, "sysadmin", models.SystemRoleAdmin)

	for i, name := range []string{"Farm One", "Farm Two"} {
		_, err := env.farmService.CreateFarm(services.CreateFarmInput{
			BIN:       fmt.Sprintf("10000000000%d", i+1),
			Name:      name,
			CreatorID: &member.ID,
		})
		require.NoError(t, err)
	}

	w := doRequest(t, newFarmTestRouter(env, auth.NewContext(member, nil)), http.MethodGet, "/api/farms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var memberResponse struct {
		Farms []dto.FarmWithRoleDTO `json:"farms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &memberResponse))
	require.Len(t, memberResponse.Farms, 2)
	for _, farm := range memberResponse.Farms {
		require.Equal(t, models.FarmRoleAdmin, farm.Role)
	}

	w = doRequest(t, newFarmTestRouter(env, auth.NewContext(outsider, nil)), http.MethodGet, "/api/farms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var outsiderResponse struct {
		Farms []dto.FarmWithRoleDTO `json:"farms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outsiderResponse))
	require.Empty(t, outsiderResponse.Farms)

	w = doRequest(t, newFarmTestRouter(env, auth.NewContext(admin, nil)), http.MethodGet, "/api/farms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var adminResponse struct {
		Farms []dto.FarmDTO `json:"farms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &adminResponse))
	require.Len(t, adminResponse.Farms, 2)
}

func TestFarmHandler_GetFarmHidesExistence(t *testing.T) {
	env := setupFarmTestEnv(t)

	owner := createFarmHandlerTestUser(t, env.db, "owner", models.SystemRoleFarmer)
	outsider := createFarmHandlerTestUser(t, env.db, "outsider", models.SystemRoleFarmer)
	admin := createFarmHandlerTestUser(t, env.db, "sysadmin", models.SystemRoleAdmin)

	farm, err := env.farmService.CreateFarm(services.CreateFarmInput{
		BIN:       "100000000001",
		Name:      "Home Farm",
		CreatorID: &owner.ID,
	})
	require.NoError(t, err)

	url := fmt.Sprintf("/api/farms/%d", farm.ID)

	w := doRequest(t, newFarmTestRouter(env, auth.NewContext(owner, &farm.ID)), http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail dto.FarmDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, farm.ID, detail.ID)
	require.Len(t, detail.Members, 1)

	// A non-member gets the same answer as for a farm that does not exist.
	w = doRequest(t, newFarmTestRouter(env, auth.NewContext(outsider, nil)), http.MethodGet, url, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, newFarmTestRouter(env, auth.NewContext(outsider, nil)), http.MethodGet, "/api/farms/99999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// A system admin reads any farm without a membership row.
	w = doRequest(t, newFarmTestRouter(env, auth.NewContext(admin, nil)), http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFarmHandler_SwitchFarm(t *testing.T) {
	env := setupFarmTestEnv(t)

	user := createFarmHandlerTestUser(t, env.db, "switcher", models.SystemRoleFarmer)

	farmX, err := env.farmService.CreateFarm(services.CreateFarmInput{
		BIN:       "100000000001",
		Name:      "Farm X",
		CreatorID: &user.ID,
	})
	require.NoError(t, err)

	farmY, err := env.farmService.CreateFarm(services.CreateFarmInput{BIN: "100000000002", Name: "Farm Y"})
	require.NoError(t, err)
	_, err = env.farmService.AddMember(user.ID, farmY.ID, models.FarmRoleViewer, false)
	require.NoError(t, err)

	farmZ, err := env.farmService.CreateFarm(services.CreateFarmInput{BIN: "100000000003", Name: "Farm Z"})
	require.NoError(t, err)

	r := newFarmTestRouter(env, auth.NewContext(user, &farmX.ID))

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/farms/%d/switch", farmY.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ActiveFarmID *uint64 `json:"active_farm_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.ActiveFarmID)
	require.Equal(t, farmY.ID, *response.ActiveFarmID)

	// No membership in Z: the switch is refused outright.
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/farms/%d/switch", farmZ.ID), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestFarmHandler_MemberManagementRequiresFarmAdmin(t *testing.T) {
	env := setupFarmTestEnv(t)

	owner := createFarmHandlerTestUser(t, env.db, "owner", models.SystemRoleFarmer)
	viewer := createFarmHandlerTestUser(t, env.db, "viewer", models.SystemRoleFarmer)
	invitee := createFarmHandlerTestUser(t, env.db, "invitee", models.SystemRoleFarmer)

	farm, err := env.farmService.CreateFarm(services.CreateFarmInput{
		BIN:       "100000000001",
		Name:      "Home Farm",
		CreatorID: &owner.ID,
	})
	require.NoError(t, err)
	_, err = env.farmService.AddMember(viewer.ID, farm.ID, models.FarmRoleViewer, false)
	require.NoError(t, err)

	url := fmt.Sprintf("/api/farms/%d/members", farm.ID)
	payload := map[string]interface{}{
		"user_id": invitee.ID,
		"role":    "manager",
	}

	w := doRequest(t, newFarmTestRouter(env, auth.NewContext(viewer, &farm.ID)), http.MethodPost, url, payload)
	require.Equal(t, http.StatusForbidden, w.Code)

	ownerRouter := newFarmTestRouter(env, auth.NewContext(owner, &farm.ID))
	w = doRequest(t, ownerRouter, http.MethodPost, url, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate grants conflict.
	w = doRequest(t, ownerRouter, http.MethodPost, url, payload)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, ownerRouter, http.MethodDelete, fmt.Sprintf("%s/%d", url, invitee.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, ownerRouter, http.MethodDelete, fmt.Sprintf("%s/%d", url, invitee.ID), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFarmHandler_SetPrimary(t *testing.T) {
	env := setupFarmTestEnv(t)

	user := createFarmHandlerTestUser(t, env.db, "owner", models.SystemRoleFarmer)

	farmA, err := env.farmService.CreateFarm(services.CreateFarmInput{
		BIN:       "100000000001",
		Name:      "Farm A",
		CreatorID: &user.ID,
	})
	require.NoError(t, err)

	farmB, err := env.farmService.CreateFarm(services.CreateFarmInput{BIN: "100000000002", Name: "Farm B"})
	require.NoError(t, err)
	_, err = env.farmService.AddMember(user.ID, farmB.ID, models.FarmRoleManager, false)
	require.NoError(t, err)

	r := newFarmTestRouter(env, auth.NewContext(user, &farmA.ID))

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/farms/%d/primary", farmB.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var primaries []models.FarmMembership
	require.NoError(t, env.db.
		Where("user_id = ? AND is_primary = ?", user.ID, true).
		Find(&primaries).Error)
	require.Len(t, primaries, 1)
	require.Equal(t, farmB.ID, primaries[0].FarmID)

	// Setting primary on a farm without membership reads as missing.
	w = doRequest(t, r, http.MethodPost, "/api/farms/99999/primary", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
