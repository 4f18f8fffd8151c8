package models

import (
	"time"

	"gorm.io/gorm"
)

type Farm struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	BIN          string         `gorm:"type:varchar(12);uniqueIndex;not null" json:"bin"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	DirectorName string         `gorm:"type:varchar(255)" json:"director_name"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	Email        string         `gorm:"type:varchar(100)" json:"email"`
	Address      string         `gorm:"type:text" json:"address"`
	Region       string         `gorm:"type:varchar(100)" json:"region"`
	District     string         `gorm:"type:varchar(100)" json:"district"`
	FarmType     string         `gorm:"type:varchar(50)" json:"farm_type"`
	TotalAreaHa  float64        `json:"total_area_ha"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []FarmMembership `gorm:"foreignKey:FarmID" json:"members,omitempty"`
	Fields  []Field          `gorm:"foreignKey:FarmID" json:"fields,omitempty"`
}
