package models

import (
	"time"

	"gorm.io/gorm"
)

type SystemRole string

const (
	SystemRoleAdmin  SystemRole = "admin"
	SystemRoleFarmer SystemRole = "farmer"
	SystemRoleViewer SystemRole = "viewer"
)

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string     `gorm:"type:varchar(200)" json:"full_name"`
	Role         SystemRole `gorm:"type:varchar(20);not null;default:'farmer'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	// FarmID is the legacy single-farm shortcut. The primary FarmMembership
	// is authoritative; this column is only re-synced when the primary
	// changes and consulted as the last step of the active-farm fallback.
	FarmID      *uint64        `json:"farm_id"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []FarmMembership `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs   []AuditLog       `gorm:"foreignKey:UserID" json:"-"`
}
