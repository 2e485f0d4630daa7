package server

import (
	"context"
	"errors"
	"testing"

	"taskspace/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateOrClose_ClosesPoolOnReconcileFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()
	mock.ExpectClose()

	err = migrateOrClose(context.Background(), gormDB, &config.Config{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace_member reconciliation failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
