package repository

import (
	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByIdentifier finds a user by username, falling back to email
	FindByIdentifier(identifier string) (*models.User, error)

	// UpdatePassword stores a new password hash
	UpdatePassword(userID uint64, passwordHash string) error

	// UpdateLastLogin stamps the user's last login time
	UpdateLastLogin(userID uint64) error

	// UpdateRole changes the user's system role
	UpdateRole(userID uint64, role models.SystemRole) error

	// List retrieves users with pagination
	List(params utils.PaginationParams) ([]models.User, int64, error)
}

// FarmRepository defines the interface for farm and membership data access
type FarmRepository interface {
	// Create creates a new farm
	Create(farm *models.Farm) error

	// CreateWithCreator creates a farm and the creator's admin membership
	// (primary) within a single transaction.
	CreateWithCreator(farm *models.Farm, creatorID uint64) error

	// FindByID finds a farm by ID
	FindByID(id uint64) (*models.Farm, error)

	// FindByBIN finds a farm by its tax identifier
	FindByBIN(bin string) (*models.Farm, error)

	// List retrieves all farms
	List() ([]models.Farm, error)

	// ListForUser retrieves the farms a user is a member of
	ListForUser(userID uint64) ([]models.Farm, error)

	// AddMember inserts a membership. When member.IsPrimary is set, every
	// other primary flag of that user is cleared in the same transaction.
	AddMember(member *models.FarmMembership) error

	// SetPrimary marks an existing membership as the user's primary
	SetPrimary(userID, farmID uint64) error

	// RemoveMember deletes a membership; returns false when absent
	RemoveMember(userID, farmID uint64) (bool, error)

	// FindMember finds a specific membership
	FindMember(userID, farmID uint64) (*models.FarmMembership, error)

	// PrimaryMembership returns the user's primary membership, if any
	PrimaryMembership(userID uint64) (*models.FarmMembership, error)

	// ListMembershipsByUser lists all memberships of a user in stable order
	ListMembershipsByUser(userID uint64) ([]models.FarmMembership, error)

	// ListMembers lists all members of a farm
	ListMembers(farmID uint64) ([]models.FarmMembership, error)
}

// AuditRepository defines the interface for the append-only audit trail
type AuditRepository interface {
	// Append inserts one audit record; entries are never updated or deleted
	Append(entry *models.AuditLog) error
}

// FieldRepository defines the interface for tenant-owned field data access.
// Every read applies the farm scope derived from the caller's context.
type FieldRepository interface {
	// Create creates a new field
	Create(field *models.Field) error

	// FindScoped finds a field by ID within the caller's tenant scope
	FindScoped(ctx *auth.Context, id uint64) (*models.Field, error)

	// ListScoped retrieves fields within the caller's tenant scope
	ListScoped(ctx *auth.Context, params utils.PaginationParams) ([]models.Field, int64, error)

	// Delete soft deletes a field
	Delete(id uint64) error
}
