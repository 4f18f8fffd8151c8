package dto

import (
	"time"

	"github.com/agrodata/farmdata-api/internal/models"
)

// UserDTO is the public representation of a user. The password hash never
// leaves the model layer.
type UserDTO struct {
	ID          uint64            `json:"id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	FullName    string            `json:"full_name"`
	Role        models.SystemRole `json:"role"`
	IsActive    bool              `json:"is_active"`
	FarmID      *uint64           `json:"farm_id,omitempty"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ToUserDTO converts a user model to its public representation
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		FarmID:      user.FarmID,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// TokenPairDTO carries the issued token pair
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LoginResponseDTO is returned on successful authentication
type LoginResponseDTO struct {
	User         UserDTO      `json:"user"`
	ActiveFarmID *uint64      `json:"active_farm_id"`
	Tokens       TokenPairDTO `json:"tokens"`
}
