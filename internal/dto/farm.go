package dto

import (
	"time"

	"github.com/agrodata/farmdata-api/internal/models"
)

// FarmDTO is the public representation of a farm
type FarmDTO struct {
	ID           uint64    `json:"id"`
	BIN          string    `json:"bin"`
	Name         string    `json:"name"`
	DirectorName string    `json:"director_name,omitempty"`
	Region       string    `json:"region,omitempty"`
	District     string    `json:"district,omitempty"`
	Address      string    `json:"address,omitempty"`
	TotalAreaHa  float64   `json:"total_area_ha,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FarmMemberDTO represents one member of a farm
type FarmMemberDTO struct {
	User      UserDTO         `json:"user"`
	Role      models.FarmRole `json:"role"`
	IsPrimary bool            `json:"is_primary"`
	JoinedAt  time.Time       `json:"joined_at"`
}

// FarmWithRoleDTO represents a farm together with the caller's role in it
type FarmWithRoleDTO struct {
	FarmDTO
	Role      models.FarmRole `json:"role"`
	IsPrimary bool            `json:"is_primary"`
}

// FarmDetailDTO represents detailed farm information
type FarmDetailDTO struct {
	FarmDTO
	Members []FarmMemberDTO `json:"members"`
}

// ToFarmDTO converts a farm model to its public representation
func ToFarmDTO(farm models.Farm) FarmDTO {
	return FarmDTO{
		ID:           farm.ID,
		BIN:          farm.BIN,
		Name:         farm.Name,
		DirectorName: farm.DirectorName,
		Region:       farm.Region,
		District:     farm.District,
		Address:      farm.Address,
		TotalAreaHa:  farm.TotalAreaHa,
		CreatedAt:    farm.CreatedAt,
	}
}

// ToFarmMemberDTO converts a membership to a member DTO
func ToFarmMemberDTO(member models.FarmMembership) FarmMemberDTO {
	return FarmMemberDTO{
		User:      ToUserDTO(member.User),
		Role:      member.Role,
		IsPrimary: member.IsPrimary,
		JoinedAt:  member.CreatedAt,
	}
}

// ToFarmWithRoleDTO converts a membership to a farm DTO with the caller's role
func ToFarmWithRoleDTO(member models.FarmMembership) FarmWithRoleDTO {
	return FarmWithRoleDTO{
		FarmDTO:   ToFarmDTO(member.Farm),
		Role:      member.Role,
		IsPrimary: member.IsPrimary,
	}
}

// ToFarmDetailDTO converts a farm with its members to a detailed DTO
func ToFarmDetailDTO(farm models.Farm, members []models.FarmMembership) FarmDetailDTO {
	memberDTOs := make([]FarmMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToFarmMemberDTO(member)
	}

	return FarmDetailDTO{
		FarmDTO: ToFarmDTO(farm),
		Members: memberDTOs,
	}
}
