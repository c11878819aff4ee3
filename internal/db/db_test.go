package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/model"
)

func TestDialector(t *testing.T) {
	assert.Equal(t, "sqlite", dialector("sqlite:file::memory:").Name())
	assert.Equal(t, "sqlite", dialector("fieldservice.db").Name())
	assert.Equal(t, "sqlite", dialector("file::memory:?cache=shared").Name())
	assert.Equal(t, "postgres", dialector("postgres://u:p@localhost:5432/fs?sslmode=disable").Name())
}

func TestInit_SQLite(t *testing.T) {
	gormDB, err := Init(&config.DatabaseConfig{DSN: "sqlite:file:dbinit?mode=memory&cache=shared"}, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, gormDB.Migrator().HasTable(&model.Technician{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.Appointment{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.PushSubscription{}))
	assert.True(t, gormDB.Migrator().HasTable("subscription_technician_mapping"))
}
