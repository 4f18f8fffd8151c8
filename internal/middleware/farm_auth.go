package middleware

import (
	"errors"
	"strconv"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/database"
	apierrors "github.com/agrodata/farmdata-api/internal/errors"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireFarmAccess checks that the caller may see the farm in the URL.
// Non-members get 404 rather than 403 so the farm's existence is not
// leaked; system admins pass without a membership row.
func RequireFarmAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid farm ID")
			c.Abort()
			return
		}

		ctx, exists := GetAuthContext(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var farm models.Farm
		if err := database.GetDB().First(&farm, farmID).Error; err != nil {
			apierrors.NotFound(c, "Farm not found")
			c.Abort()
			return
		}

		if !ctx.IsAdmin() {
			var member models.FarmMembership
			err := database.GetDB().
				Where("farm_id = ? AND user_id = ?", farmID, ctx.UserID()).
				First(&member).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					apierrors.InternalError(c, "")
					c.Abort()
					return
				}
				apierrors.NotFound(c, "Farm not found")
				c.Abort()
				return
			}
			c.Set("farm_membership", member)
		}

		c.Set("farm", farm)
		c.Next()
	}
}

// RequireFarmRole checks that the caller holds at least the required role
// on the farm in the URL. Unlike reads, role-guarded actions answer with
// an explicit 403: the caller already knows the farm exists.
func RequireFarmRole(required models.FarmRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		farmID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid farm ID")
			c.Abort()
			return
		}

		ctx, exists := GetAuthContext(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		resolver := auth.NewResolver(database.GetDB())
		if err := resolver.RequireFarmRole(ctx, farmID, required); err != nil {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSystemAdmin restricts a route to system administrators
func RequireSystemAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, exists := GetAuthContext(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if err := auth.RequireRole(ctx, models.SystemRoleAdmin); err != nil {
			apierrors.Forbidden(c, "Admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
