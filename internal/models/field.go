package models

import (
	"time"

	"gorm.io/gorm"
)

// Field is a tenant-owned agronomic entity. Every read of fields goes
// through database.ForFarm so a request never sees another farm's rows.
type Field struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	FarmID    uint64         `gorm:"not null;index" json:"farm_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	AreaHa    float64        `json:"area_ha"`
	Crop      string         `gorm:"type:varchar(100)" json:"crop"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Farm Farm `gorm:"foreignKey:FarmID" json:"farm,omitempty"`
}
