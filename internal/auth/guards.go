package auth

import (
	"errors"

	"github.com/agrodata/farmdata-api/internal/models"
)

var (
	// ErrUnauthenticated is returned by guards when no principal is attached.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrFarmNotBound is returned when an authenticated non-admin has no active farm.
	ErrFarmNotBound = errors.New("no active farm selected")
	// ErrForbidden is returned when the principal lacks the required role.
	ErrForbidden = errors.New("insufficient permissions")
)

// RequireAuth fails unless a principal is attached to the context.
func RequireAuth(ctx *Context) error {
	if !ctx.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireFarmBinding fails unless the context is farm-bound. System admins
// pass unbound because scoping does not apply to them.
func RequireFarmBinding(ctx *Context) error {
	if err := RequireAuth(ctx); err != nil {
		return err
	}
	if ctx.ActiveFarmID == nil && !ctx.IsAdmin() {
		return ErrFarmNotBound
	}
	return nil
}

// RequireRole fails unless the principal's system role is one of allowed.
func RequireRole(ctx *Context, allowed ...models.SystemRole) error {
	if err := RequireAuth(ctx); err != nil {
		return err
	}
	for _, role := range allowed {
		if ctx.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// RequireFarmRole fails unless the principal holds at least the required
// role on the farm.
func (r *Resolver) RequireFarmRole(ctx *Context, farmID uint64, required models.FarmRole) error {
	if err := RequireAuth(ctx); err != nil {
		return err
	}
	if !r.HasFarmRole(ctx, farmID, required) {
		return ErrForbidden
	}
	return nil
}
