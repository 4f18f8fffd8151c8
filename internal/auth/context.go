package auth

import (
	"github.com/agrodata/farmdata-api/internal/models"
)

// Context is the authenticated state of one request or session. It is built
// by the session and bearer-token middlewares, threaded explicitly through
// guards and scopes, and never mutated after construction: farm switches
// produce a new Context via WithActiveFarm.
type Context struct {
	User         *models.User
	Role         models.SystemRole
	ActiveFarmID *uint64
}

// Anonymous returns the unauthenticated context.
func Anonymous() *Context {
	return &Context{}
}

// NewContext builds a context for an authenticated user. activeFarmID may be
// nil: system admins act farm-unbound, everyone else stays in the
// authenticated-but-unbound state until a farm resolves.
func NewContext(user *models.User, activeFarmID *uint64) *Context {
	return &Context{
		User:         user,
		Role:         user.Role,
		ActiveFarmID: activeFarmID,
	}
}

// WithActiveFarm returns a copy of the context bound to the given farm.
func (c *Context) WithActiveFarm(farmID uint64) *Context {
	return &Context{
		User:         c.User,
		Role:         c.Role,
		ActiveFarmID: &farmID,
	}
}

// IsAuthenticated reports whether a principal is attached.
func (c *Context) IsAuthenticated() bool {
	return c != nil && c.User != nil
}

// IsAdmin reports whether the principal holds the system-wide admin role.
func (c *Context) IsAdmin() bool {
	return c.IsAuthenticated() && c.Role == models.SystemRoleAdmin
}

// IsFarmBound reports whether an active farm is resolved.
func (c *Context) IsFarmBound() bool {
	return c.IsAuthenticated() && c.ActiveFarmID != nil
}

// UserID returns the principal's id, or 0 for the anonymous context.
func (c *Context) UserID() uint64 {
	if !c.IsAuthenticated() {
		return 0
	}
	return c.User.ID
}
