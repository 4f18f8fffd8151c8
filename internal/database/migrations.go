package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"fields", "idx_fields_farm_id", "farm_id"},
		{"fields", "idx_fields_crop", "crop"},

		{"farm_memberships", "idx_farm_memberships_farm_id", "farm_id"},
		{"farm_memberships", "idx_farm_memberships_user_id", "user_id"},

		{"audit_logs", "idx_audit_logs_user_id", "user_id"},
		{"audit_logs", "idx_audit_logs_action", "action"},
		{"audit_logs", "idx_audit_logs_created_at", "created_at"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	// Partial unique index backing the at-most-one-primary invariant.
	// The unset-then-set transaction in FarmRepository keeps writers
	// correct; this index makes the database reject a race that slips
	// through anyway.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_farm_memberships_primary
		ON farm_memberships (user_id)
		WHERE is_primary
	`).Error; err != nil {
		return fmt.Errorf("failed to create primary-membership index: %w", err)
	}

	return nil
}

// MigrateDatabase runs all post-automigrate steps
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
