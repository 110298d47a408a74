package database_test

import (
	"testing"

	"denuncias/internal/database"
	"denuncias/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	assert.NoError(t, database.Ping(db))

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("complaints"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open("oracle", "", zap.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_LogsThroughZapWithoutNotFoundNoise(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db, err := database.Open(database.DriverSQLite, ":memory:", zap.New(core))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	var user models.User
	err = db.First(&user, "email = ?", "nobody@example.com").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.FilterMessageSnippet("record not found").Len())

	err = db.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	entries := logs.FilterMessageSnippet("missing_table").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}
