package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/markflow/markflow/internal/workflow/model"
)

// setupTestDB opens a private in-memory database with the full schema. The
// named DSN keeps the database alive across pooled connections and isolated
// between tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.BlockDefinition{},
		&model.Workflow{},
		&model.Task{},
		&model.TaskStep{},
		&model.User{},
	))
	return db
}
