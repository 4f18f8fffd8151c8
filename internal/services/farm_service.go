package services

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrFarmNotFound       = errors.New("farm not found")
	ErrBINTaken           = errors.New("farm with this BIN already exists")
	ErrInvalidBIN         = errors.New("BIN must be 12 digits")
	ErrInvalidFarmName    = errors.New("farm name cannot be empty")
	ErrMembershipExists   = errors.New("user is already a member of this farm")
	ErrMembershipNotFound = errors.New("farm membership not found")
)

var binPattern = regexp.MustCompile(`^\d{12}$`)

// FarmService provides business logic for the tenant registry: farms,
// memberships, the primary flag, and active-farm resolution.
type FarmService struct {
	farmRepo repository.FarmRepository
	userRepo repository.UserRepository
}

// NewFarmService creates a new FarmService.
func NewFarmService(farmRepo repository.FarmRepository, userRepo repository.UserRepository) *FarmService {
	return &FarmService{
		farmRepo: farmRepo,
		userRepo: userRepo,
	}
}

// CreateFarmInput represents parameters to create a new farm.
type CreateFarmInput struct {
	BIN          string
	Name         string
	DirectorName string
	Region       string
	District     string
	Address      string
	TotalAreaHa  float64
	// CreatorID, when set, receives an admin membership marked primary in
	// the same transaction that creates the farm.
	CreatorID *uint64
}

// CreateFarm creates a new farm. With a creator the farm starts with
// exactly one admin member.
func (s *FarmService) CreateFarm(input CreateFarmInput) (*models.Farm, error) {
	if !binPattern.MatchString(input.BIN) {
		return nil, ErrInvalidBIN
	}
	if input.Name == "" {
		return nil, ErrInvalidFarmName
	}

	if _, err := s.farmRepo.FindByBIN(input.BIN); err == nil {
		return nil, ErrBINTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check BIN: %w", err)
	}

	farm := &models.Farm{
		BIN:          input.BIN,
		Name:         input.Name,
		DirectorName: input.DirectorName,
		Region:       input.Region,
		District:     input.District,
		Address:      input.Address,
		TotalAreaHa:  input.TotalAreaHa,
	}

	if input.CreatorID == nil {
		if err := s.farmRepo.Create(farm); err != nil {
			return nil, fmt.Errorf("failed to create farm: %w", err)
		}
		return farm, nil
	}

	if _, err := s.userRepo.FindByID(*input.CreatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	if err := s.farmRepo.CreateWithCreator(farm, *input.CreatorID); err != nil {
		return nil, fmt.Errorf("failed to create farm: %w", err)
	}

	return farm, nil
}

// GetFarm retrieves a farm by ID.
func (s *FarmService) GetFarm(id uint64) (*models.Farm, error) {
	farm, err := s.farmRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmNotFound
		}
		return nil, fmt.Errorf("failed to find farm: %w", err)
	}
	return farm, nil
}

// ListFarms returns the farms visible to the caller: every farm for a
// system admin, otherwise the farms the caller is a member of.
func (s *FarmService) ListFarms(ctx *auth.Context) ([]models.Farm, error) {
	if ctx.IsAdmin() {
		return s.farmRepo.List()
	}
	return s.farmRepo.ListForUser(ctx.UserID())
}

// AddMember grants a user access to a farm.
func (s *FarmService) AddMember(userID, farmID uint64, role models.FarmRole, isPrimary bool) (*models.FarmMembership, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if _, err := s.farmRepo.FindByID(farmID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmNotFound
		}
		return nil, fmt.Errorf("failed to find farm: %w", err)
	}

	if _, err := s.farmRepo.FindMember(userID, farmID); err == nil {
		return nil, ErrMembershipExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.FarmMembership{
		UserID:    userID,
		FarmID:    farmID,
		Role:      role,
		IsPrimary: isPrimary,
	}

	if err := s.farmRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// SetPrimary marks an existing membership as the user's primary farm.
func (s *FarmService) SetPrimary(userID, farmID uint64) error {
	err := s.farmRepo.SetPrimary(userID, farmID)
	if errors.Is(err, repository.ErrMembershipNotFound) {
		return ErrMembershipNotFound
	}
	return err
}

// RemoveMember revokes a user's access to a farm. Returns false when no
// such membership exists.
func (s *FarmService) RemoveMember(userID, farmID uint64) (bool, error) {
	return s.farmRepo.RemoveMember(userID, farmID)
}

// MembershipsFor lists a user's farm memberships in stable order.
func (s *FarmService) MembershipsFor(userID uint64) ([]models.FarmMembership, error) {
	return s.farmRepo.ListMembershipsByUser(userID)
}

// ListMembers lists the members of a farm.
func (s *FarmService) ListMembers(farmID uint64) ([]models.FarmMembership, error) {
	return s.farmRepo.ListMembers(farmID)
}

// ResolveActiveFarm picks the farm a session should act on: the requested
// farm when the user is a member there, else the primary membership, else
// the first membership in stable order, else the deprecated users.farm_id
// shortcut, else none.
func (s *FarmService) ResolveActiveFarm(userID uint64, requestedFarmID *uint64) (*uint64, error) {
	if requestedFarmID != nil {
		if _, err := s.farmRepo.FindMember(userID, *requestedFarmID); err == nil {
			return requestedFarmID, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
	}

	primary, err := s.farmRepo.PrimaryMembership(userID)
	if err == nil {
		return &primary.FarmID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find primary membership: %w", err)
	}

	memberships, err := s.farmRepo.ListMembershipsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(memberships) > 0 {
		return &memberships[0].FarmID, nil
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user.FarmID, nil
}

// SwitchFarm rebinds the context to another farm. Only system admins and
// members of the target farm may switch; the original context is left
// untouched either way. Switching to the already-active farm is a no-op.
func (s *FarmService) SwitchFarm(ctx *auth.Context, farmID uint64) (*auth.Context, error) {
	if err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	if ctx.ActiveFarmID != nil && *ctx.ActiveFarmID == farmID {
		return ctx, nil
	}

	if !ctx.IsAdmin() {
		if _, err := s.farmRepo.FindMember(ctx.UserID(), farmID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, auth.ErrForbidden
			}
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
	}

	return ctx.WithActiveFarm(farmID), nil
}
