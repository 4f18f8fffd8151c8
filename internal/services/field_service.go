package services

import (
	"errors"
	"fmt"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"github.com/agrodata/farmdata-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrFieldNotFound    = errors.New("field not found")
	ErrTargetFarmNeeded = errors.New("target farm is required")
	ErrInvalidFieldName = errors.New("field name cannot be empty")
)

// FieldService is the tenant-owned collaborator surface: every read goes
// through the farm scope and every write passes a role guard first. Other
// agronomic entities integrate with authorization the same way.
type FieldService struct {
	fieldRepo repository.FieldRepository
	resolver  *auth.Resolver
}

// NewFieldService creates a new FieldService.
func NewFieldService(fieldRepo repository.FieldRepository, resolver *auth.Resolver) *FieldService {
	return &FieldService{
		fieldRepo: fieldRepo,
		resolver:  resolver,
	}
}

// CreateFieldInput represents parameters to create a field.
type CreateFieldInput struct {
	Name   string
	AreaHa float64
	Crop   string
	// FarmID picks the target farm for system admins, who may act without
	// an active farm. Non-admins always write into their active farm.
	FarmID *uint64
}

// ListFields returns the fields visible to the caller.
func (s *FieldService) ListFields(ctx *auth.Context, params utils.PaginationParams) ([]models.Field, int64, error) {
	if err := auth.RequireAuth(ctx); err != nil {
		return nil, 0, err
	}
	return s.fieldRepo.ListScoped(ctx, params)
}

// GetField returns one field within the caller's scope.
func (s *FieldService) GetField(ctx *auth.Context, id uint64) (*models.Field, error) {
	if err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	field, err := s.fieldRepo.FindScoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to find field: %w", err)
	}
	return field, nil
}

// CreateField creates a field on the caller's active farm (or, for a
// system admin, on the explicitly chosen farm). Requires at least the
// manager role there.
func (s *FieldService) CreateField(ctx *auth.Context, input CreateFieldInput) (*models.Field, error) {
	if input.Name == "" {
		return nil, ErrInvalidFieldName
	}

	farmID, err := s.targetFarm(ctx, input.FarmID)
	if err != nil {
		return nil, err
	}

	if err := s.resolver.RequireFarmRole(ctx, farmID, models.FarmRoleManager); err != nil {
		return nil, err
	}

	field := &models.Field{
		FarmID: farmID,
		Name:   input.Name,
		AreaHa: input.AreaHa,
		Crop:   input.Crop,
	}

	if err := s.fieldRepo.Create(field); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	return field, nil
}

// DeleteField removes a field. The lookup is scoped, so a field on a farm
// the caller cannot see reads as not found; deleting within the visible
// scope still requires the farm admin role.
func (s *FieldService) DeleteField(ctx *auth.Context, id uint64) error {
	field, err := s.GetField(ctx, id)
	if err != nil {
		return err
	}

	if err := s.resolver.RequireFarmRole(ctx, field.FarmID, models.FarmRoleAdmin); err != nil {
		return err
	}

	return s.fieldRepo.Delete(field.ID)
}

func (s *FieldService) targetFarm(ctx *auth.Context, requested *uint64) (uint64, error) {
	if ctx.IsAdmin() {
		if requested != nil {
			return *requested, nil
		}
		if ctx.ActiveFarmID != nil {
			return *ctx.ActiveFarmID, nil
		}
		return 0, ErrTargetFarmNeeded
	}

	if err := auth.RequireFarmBinding(ctx); err != nil {
		return 0, err
	}
	return *ctx.ActiveFarmID, nil
}
