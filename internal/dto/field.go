package dto

import (
	"time"

	"github.com/agrodata/farmdata-api/internal/models"
)

// FieldDTO is the public representation of a field
type FieldDTO struct {
	ID        uint64    `json:"id"`
	FarmID    uint64    `json:"farm_id"`
	Name      string    `json:"name"`
	AreaHa    float64   `json:"area_ha"`
	Crop      string    `json:"crop,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToFieldDTO converts a field model to its public representation
func ToFieldDTO(field models.Field) FieldDTO {
	return FieldDTO{
		ID:        field.ID,
		FarmID:    field.FarmID,
		Name:      field.Name,
		AreaHa:    field.AreaHa,
		Crop:      field.Crop,
		CreatedAt: field.CreatedAt,
	}
}

// ToFieldDTOs converts a slice of field models
func ToFieldDTOs(fields []models.Field) []FieldDTO {
	dtos := make([]FieldDTO, len(fields))
	for i, field := range fields {
		dtos[i] = ToFieldDTO(field)
	}
	return dtos
}
