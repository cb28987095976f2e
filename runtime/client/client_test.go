package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiddhanthNB/simple-orm/query/operators"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New("oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestNewSQLServerHasNoBundledDriver(t *testing.T) {
	_, err := New("sqlserver", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bundled driver")
}

func TestNewSQLite(t *testing.T) {
	c, err := New("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer c.Disconnect()

	assert.Equal(t, operators.SQLite, c.Dialect())
	require.NoError(t, c.Connect(context.Background()))
}

func TestFromDB(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	c, err := FromDB(db, "postgresql")
	require.NoError(t, err)
	assert.Equal(t, operators.Postgres, c.Dialect())
	assert.Same(t, db, c.DB())

	_, err = FromDB(db, "db2")
	assert.Error(t, err)
}

func TestFromEnvRequiresProviderAndURL(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvURL, "")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvProvider)
}

func TestFromEnvAppliesPoolTuning(t *testing.T) {
	t.Setenv(EnvProvider, "sqlite")
	t.Setenv(EnvURL, filepath.Join(t.TempDir(), "test.db"))
	t.Setenv(EnvMaxOpenConns, "3")
	t.Setenv(EnvMaxIdleConns, "not-a-number")

	c, err := FromEnv()
	require.NoError(t, err)
	defer c.Disconnect()

	assert.Equal(t, operators.SQLite, c.Dialect())
	assert.Equal(t, 3, c.DB().Stats().MaxOpenConnections)
}
