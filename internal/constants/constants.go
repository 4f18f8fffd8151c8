package constants

// Session and gin context keys
const (
	SessionCookieName  = "farmdata_session"
	ContextKeyUserID   = "user_id"
	ContextKeyAuth     = "auth_context"
	SessionKeyFarmID   = "selected_farm_id"
	FarmSelectorHeader = "X-Farm-ID"
)

// Validation limits
const (
	MinPasswordLength = 8
	BINLength         = 12
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
