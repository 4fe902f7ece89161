package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bikeshare-backend/internal/model"
)

// newSQLiteDB opens a private in-memory database with the stations table.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Station{}))
	return db
}

// newStores returns one fresh instance of every Store implementation.
func newStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory":   NewMemoryStore(nil),
		"document": NewDocumentStore(newSQLiteDB(t)),
	}
}
