package models

import "time"

type FarmRole string

const (
	FarmRoleAdmin   FarmRole = "admin"
	FarmRoleManager FarmRole = "manager"
	FarmRoleViewer  FarmRole = "viewer"
)

// FarmMembership links a user to a farm with a per-farm role. At most one
// membership per user carries IsPrimary; the unset-then-set write in
// FarmRepository keeps that invariant under concurrent switches.
type FarmMembership struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uq_user_farm" json:"user_id"`
	FarmID    uint64    `gorm:"not null;uniqueIndex:uq_user_farm" json:"farm_id"`
	Role      FarmRole  `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Farm Farm `gorm:"foreignKey:FarmID" json:"farm,omitempty"`
}
