package database

import (
	"gorm.io/gorm"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// ForFarm scopes a query over a tenant-owned table to the caller's active
// farm. System admins see every tenant. A non-admin context without an
// active farm gets a predicate that matches nothing: an unresolved tenant
// must fail closed, never fall through to an unfiltered query.
func ForFarm(ctx *auth.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ctx.IsAdmin() {
			return db
		}
		if !ctx.IsFarmBound() {
			return db.Where("1 = 0")
		}
		return db.Where("farm_id = ?", *ctx.ActiveFarmID)
	}
}
