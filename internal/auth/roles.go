package auth

import (
	"github.com/agrodata/farmdata-api/internal/models"
	"gorm.io/gorm"
)

// roleRank defines the total order viewer < manager < admin over farm roles.
func roleRank(role models.FarmRole) int {
	switch role {
	case models.FarmRoleAdmin:
		return 2
	case models.FarmRoleManager:
		return 1
	case models.FarmRoleViewer:
		return 0
	default:
		return -1
	}
}

// Resolver answers farm-role questions against the membership table. It
// always reads a fresh membership row, so a revoked role takes effect on the
// next check.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a Resolver over the given database.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// HasFarmRole reports whether the principal holds at least the required role
// on the given farm. System admins satisfy every farm-role check without a
// membership row. Lookup failures count as no access.
func (r *Resolver) HasFarmRole(ctx *Context, farmID uint64, required models.FarmRole) bool {
	if !ctx.IsAuthenticated() {
		return false
	}
	if ctx.IsAdmin() {
		return true
	}

	var membership models.FarmMembership
	err := r.db.Where("user_id = ? AND farm_id = ?", ctx.UserID(), farmID).
		First(&membership).Error
	if err != nil {
		// Missing membership and lookup failure both mean no access.
		return false
	}

	return roleRank(membership.Role) >= roleRank(required)
}

// CanEdit reports whether the principal may modify data on the farm.
func (r *Resolver) CanEdit(ctx *Context, farmID uint64) bool {
	return r.HasFarmRole(ctx, farmID, models.FarmRoleManager)
}

// CanDelete reports whether the principal may delete data on the farm.
func (r *Resolver) CanDelete(ctx *Context, farmID uint64) bool {
	return r.HasFarmRole(ctx, farmID, models.FarmRoleAdmin)
}
