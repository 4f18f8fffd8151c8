package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupAuditMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestAuditRepository_Append(t *testing.T) {
	gormDB, mock := setupAuditMockDB(t)
	repo := NewAuditRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WithArgs(uint64(7), "login", "user", sqlmock.AnyArg(), "details", "203.0.113.9", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	entityID := uint64(7)
	entry := &models.AuditLog{
		UserID:     7,
		Action:     "login",
		EntityType: "user",
		EntityID:   &entityID,
		Details:    "details",
		IPAddress:  "203.0.113.9",
	}

	require.NoError(t, repo.Append(entry))
	require.Equal(t, uint64(1), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_AppendPropagatesError(t *testing.T) {
	gormDB, mock := setupAuditMockDB(t)
	repo := NewAuditRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnError(gorm.ErrInvalidTransaction)
	mock.ExpectRollback()

	err := repo.Append(&models.AuditLog{UserID: 7, Action: "login"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
