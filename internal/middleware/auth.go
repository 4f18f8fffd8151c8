package middleware

import (
	"strconv"
	"strings"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/database"
	apierrors "github.com/agrodata/farmdata-api/internal/errors"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth authenticates the request via the session cookie or, when no
// session is present, a bearer access token, and attaches one AuthContext
// to the gin context. Both transports end in the same context type so the
// rest of the request pipeline cannot tell them apart.
func RequireAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, ok := buildContext(c, tokens)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAuth, ctx)
		c.Set(constants.ContextKeyUserID, ctx.UserID())
		c.Next()
	}
}

// GetAuthContext retrieves the AuthContext from the gin context
func GetAuthContext(c *gin.Context) (*auth.Context, bool) {
	value, exists := c.Get(constants.ContextKeyAuth)
	if !exists {
		return nil, false
	}
	ctx, ok := value.(*auth.Context)
	return ctx, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

func buildContext(c *gin.Context, tokens *auth.TokenService) (*auth.Context, bool) {
	userID, requestedFarm, ok := principalFromSession(c)
	if !ok {
		userID, ok = principalFromBearer(c, tokens)
		if !ok {
			return nil, false
		}
		requestedFarm = requestedFarmFromHeader(c)
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)
	farmService := services.NewFarmService(repository.NewFarmRepository(db), userRepo)

	user, err := authService.GetActiveUser(userID)
	if err != nil {
		return nil, false
	}

	// Admins may act on any farm, including one they hold no membership
	// in, so a requested farm is taken at face value for them.
	if user.Role == models.SystemRoleAdmin && requestedFarm != nil {
		return auth.NewContext(user, requestedFarm), true
	}

	activeFarm, err := farmService.ResolveActiveFarm(user.ID, requestedFarm)
	if err != nil {
		return nil, false
	}

	return auth.NewContext(user, activeFarm), true
}

func principalFromSession(c *gin.Context) (uint64, *uint64, bool) {
	session := sessions.Default(c)

	userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
	if !ok {
		return 0, nil, false
	}

	var requestedFarm *uint64
	if farmID, ok := toUint64(session.Get(constants.SessionKeyFarmID)); ok {
		requestedFarm = &farmID
	}

	return userID, requestedFarm, true
}

func principalFromBearer(c *gin.Context, tokens *auth.TokenService) (uint64, bool) {
	header := c.GetHeader("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return 0, false
	}

	claims, err := tokens.Parse(tokenString, auth.TokenTypeAccess)
	if err != nil {
		return 0, false
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, false
	}

	return userID, true
}

func requestedFarmFromHeader(c *gin.Context) *uint64 {
	value := c.GetHeader(constants.FarmSelectorHeader)
	if value == "" {
		return nil
	}
	farmID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil
	}
	return &farmID
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
