package repository

import (
	"errors"
	"fmt"

	"github.com/agrodata/farmdata-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFarmRepository is a GORM implementation of FarmRepository
type GormFarmRepository struct {
	db *gorm.DB
}

var (
	// ErrMembershipNotFound is returned when a (user, farm) membership is absent.
	ErrMembershipNotFound = errors.New("farm repository: membership not found")
)

// NewFarmRepository creates a new FarmRepository
func NewFarmRepository(db *gorm.DB) FarmRepository {
	return &GormFarmRepository{db: db}
}

// Create creates a new farm
func (r *GormFarmRepository) Create(farm *models.Farm) error {
	return r.db.Create(farm).Error
}

// CreateWithCreator creates a farm and the creator's admin membership
// atomically. The farm never exists without an admin member, and the
// membership becomes the creator's primary.
func (r *GormFarmRepository) CreateWithCreator(farm *models.Farm, creatorID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(farm).Error; err != nil {
			return fmt.Errorf("create farm: %w", err)
		}

		member := &models.FarmMembership{
			UserID:    creatorID,
			FarmID:    farm.ID,
			Role:      models.FarmRoleAdmin,
			IsPrimary: true,
		}

		if err := setPrimaryMembership(tx, member); err != nil {
			return fmt.Errorf("create farm membership: %w", err)
		}

		return nil
	})
}

// FindByID finds a farm by ID
func (r *GormFarmRepository) FindByID(id uint64) (*models.Farm, error) {
	var farm models.Farm
	if err := r.db.First(&farm, id).Error; err != nil {
		return nil, err
	}
	return &farm, nil
}

// FindByBIN finds a farm by its tax identifier
func (r *GormFarmRepository) FindByBIN(bin string) (*models.Farm, error) {
	var farm models.Farm
	if err := r.db.Where("bin = ?", bin).First(&farm).Error; err != nil {
		return nil, err
	}
	return &farm, nil
}

// List retrieves all farms
func (r *GormFarmRepository) List() ([]models.Farm, error) {
	var farms []models.Farm
	if err := r.db.Order("id").Find(&farms).Error; err != nil {
		return nil, err
	}
	return farms, nil
}

// ListForUser retrieves the farms a user is a member of
func (r *GormFarmRepository) ListForUser(userID uint64) ([]models.Farm, error) {
	var farms []models.Farm
	err := r.db.
		Joins("JOIN farm_memberships ON farm_memberships.farm_id = farms.id").
		Where("farm_memberships.user_id = ?", userID).
		Order("farms.id").
		Find(&farms).Error
	if err != nil {
		return nil, err
	}
	return farms, nil
}

// AddMember inserts a membership. A primary insert clears every other
// primary flag of the user first, inside one transaction, so at most one
// membership per user ever carries the flag.
func (r *GormFarmRepository) AddMember(member *models.FarmMembership) error {
	if !member.IsPrimary {
		return r.db.Create(member).Error
	}
	return r.runPrimaryTx(func(tx *gorm.DB) error {
		return setPrimaryMembership(tx, member)
	})
}

// SetPrimary marks an existing membership as the user's primary
func (r *GormFarmRepository) SetPrimary(userID, farmID uint64) error {
	return r.runPrimaryTx(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var member models.FarmMembership
		err := tx.Where("user_id = ? AND farm_id = ?", userID, farmID).
			First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		if err != nil {
			return err
		}

		if err := clearPrimaryFlags(tx, userID); err != nil {
			return err
		}

		if err := tx.Model(&models.FarmMembership{}).
			Where("id = ?", member.ID).
			Update("is_primary", true).Error; err != nil {
			return err
		}

		return syncLegacyFarmID(tx, userID, &farmID)
	})
}

// RemoveMember deletes a membership; returns false when absent. When the
// removed membership was primary no other membership is promoted: the
// resolve fallback picks the first remaining one at read time.
func (r *GormFarmRepository) RemoveMember(userID, farmID uint64) (bool, error) {
	var removed bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var member models.FarmMembership
		err := tx.Where("user_id = ? AND farm_id = ?", userID, farmID).
			First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(&member).Error; err != nil {
			return err
		}
		removed = true

		if member.IsPrimary {
			return syncLegacyFarmID(tx, userID, nil)
		}
		return nil
	})
	return removed, err
}

// FindMember finds a specific membership
func (r *GormFarmRepository) FindMember(userID, farmID uint64) (*models.FarmMembership, error) {
	var member models.FarmMembership
	if err := r.db.Where("user_id = ? AND farm_id = ?", userID, farmID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// PrimaryMembership returns the user's primary membership, if any
func (r *GormFarmRepository) PrimaryMembership(userID uint64) (*models.FarmMembership, error) {
	var member models.FarmMembership
	if err := r.db.Where("user_id = ? AND is_primary = ?", userID, true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembershipsByUser lists all memberships of a user in stable order
func (r *GormFarmRepository) ListMembershipsByUser(userID uint64) ([]models.FarmMembership, error) {
	var memberships []models.FarmMembership
	if err := r.db.Preload("Farm").
		Where("user_id = ?", userID).
		Order("id").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a farm
func (r *GormFarmRepository) ListMembers(farmID uint64) ([]models.FarmMembership, error) {
	var members []models.FarmMembership
	if err := r.db.Preload("User").
		Where("farm_id = ?", farmID).
		Order("id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// runPrimaryTx executes a primary-flag write transaction and retries it once
// when the first attempt loses a race against a concurrent write. A second
// failure surfaces as a write failure.
func (r *GormFarmRepository) runPrimaryTx(fn func(tx *gorm.DB) error) error {
	err := r.db.Transaction(fn)
	if err == nil || errors.Is(err, ErrMembershipNotFound) {
		return err
	}
	if err := r.db.Transaction(fn); err != nil {
		return fmt.Errorf("primary membership write: %w", err)
	}
	return nil
}

// lockUser takes a row lock on the user for the rest of the transaction.
// Concurrent primary switches for one user serialize on it, so drivers
// without the partial unique index on is_primary cannot commit two primary
// rows either.
func lockUser(tx *gorm.DB, userID uint64) error {
	var user models.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error
}

// setPrimaryMembership clears the user's other primary flags, inserts the
// membership, and re-syncs the legacy users.farm_id column. Must run inside
// a transaction.
func setPrimaryMembership(tx *gorm.DB, member *models.FarmMembership) error {
	if err := lockUser(tx, member.UserID); err != nil {
		return err
	}
	if err := clearPrimaryFlags(tx, member.UserID); err != nil {
		return err
	}
	if err := tx.Create(member).Error; err != nil {
		return err
	}
	return syncLegacyFarmID(tx, member.UserID, &member.FarmID)
}

func clearPrimaryFlags(tx *gorm.DB, userID uint64) error {
	return tx.Model(&models.FarmMembership{}).
		Where("user_id = ? AND is_primary = ?", userID, true).
		Update("is_primary", false).Error
}

// syncLegacyFarmID keeps the deprecated users.farm_id column consistent
// with the primary membership.
func syncLegacyFarmID(tx *gorm.DB, userID uint64, farmID *uint64) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("farm_id", farmID).Error
}
