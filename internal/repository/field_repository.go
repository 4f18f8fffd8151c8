package repository

import (
	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/database"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/utils"
	"gorm.io/gorm"
)

// GormFieldRepository is a GORM implementation of FieldRepository
type GormFieldRepository struct {
	db *gorm.DB
}

// NewFieldRepository creates a new FieldRepository
func NewFieldRepository(db *gorm.DB) FieldRepository {
	return &GormFieldRepository{db: db}
}

// Create creates a new field
func (r *GormFieldRepository) Create(field *models.Field) error {
	return r.db.Create(field).Error
}

// FindScoped finds a field by ID within the caller's tenant scope. A field
// of another farm comes back as record-not-found, same as a missing row.
func (r *GormFieldRepository) FindScoped(ctx *auth.Context, id uint64) (*models.Field, error) {
	var field models.Field
	if err := r.db.Scopes(database.ForFarm(ctx)).
		First(&field, id).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// ListScoped retrieves fields within the caller's tenant scope
func (r *GormFieldRepository) ListScoped(ctx *auth.Context, params utils.PaginationParams) ([]models.Field, int64, error) {
	var total int64
	if err := r.db.Model(&models.Field{}).
		Scopes(database.ForFarm(ctx)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var fields []models.Field
	if err := r.db.Scopes(database.ForFarm(ctx), database.Paginate(params)).
		Order("id").
		Find(&fields).Error; err != nil {
		return nil, 0, err
	}

	return fields, total, nil
}

// Delete soft deletes a field
func (r *GormFieldRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Field{}, id).Error
}
