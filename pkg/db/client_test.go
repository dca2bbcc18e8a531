package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/pkg/config"
	"github.com/plateops/ops-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.DBConfig{
		Driver:     config.DBDriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	client, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&testModel{}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSQLiteClientReportsDialectAndPings(t *testing.T) {
	client := newTestClient(t)
	assert.Equal(t, "sqlite3", client.Dialect())
	require.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor(config.DBConfig{Driver: config.DBDriverSQLite})
	assert.Error(t, err)

	_, err = dialectorFor(config.DBConfig{Driver: config.DBDriverPostgres})
	assert.Error(t, err)

	_, err = dialectorFor(config.DBConfig{Driver: "mysql", DSN: "x"})
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)

	d, err := dialectorFor(config.DBConfig{DSN: "postgres://u:p@localhost:5432/ops"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t)
	var row testModel
	err := client.DB().First(&row, "name = ?", "missing").Error
	assert.True(t, IsNotFound(err))
}
