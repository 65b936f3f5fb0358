package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempDB(t *testing.T) *SQLiteDB {
	t.Helper()

	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	return database
}

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "explicit path", path: "/tmp/explicit.db", want: "/tmp/explicit.db"},
		{name: "default path", path: "", want: "./paper.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := NewSQLiteDB(NewSQLiteConfig(tt.path))
			assert.Equal(t, tt.want, database.dbPath)
		})
	}
}

func TestSQLiteDB_DSN(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: "/tmp/test.db"})
	dsn := database.DSN()

	assert.True(t, strings.HasPrefix(dsn, "/tmp/test.db?_pragma=busy_timeout(5000)"), dsn)
	assert.Contains(t, dsn, "_pragma=foreign_keys(ON)")

	database = NewSQLiteDB(&SQLiteConfig{Path: "file:test.db?mode=rwc"})
	assert.True(t, strings.HasPrefix(database.DSN(), "file:test.db?mode=rwc&_pragma="), database.DSN())
}

func TestSQLiteDB_Connect(t *testing.T) {
	database := newTempDB(t)

	assert.NotNil(t, database.DB())
	assert.NoError(t, database.Ping(context.Background()))
	assert.Error(t, database.Connect(), "Connect() should fail when already connected")
}

func TestSQLiteDB_Close(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	assert.NoError(t, database.Close(), "Close() without Connect() should not fail")

	require.NoError(t, database.Connect())
	assert.NoError(t, database.Close())
	assert.Nil(t, database.DB())
	assert.Error(t, database.Ping(context.Background()))
}

func TestSQLiteDB_ForeignKeysEnabled(t *testing.T) {
	database := newTempDB(t)

	var enabled int
	require.NoError(t, database.DB().QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}
