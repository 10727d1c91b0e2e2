package common

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelblog/config"
	"travelblog/logging"
)

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"blog.db", "blog.db?_foreign_keys=on"},
		{"file::memory:", "file::memory:?_foreign_keys=on"},
		{"blog.db?cache=shared", "blog.db?cache=shared&_foreign_keys=on"},
		{"blog.db?_foreign_keys=off", "blog.db?_foreign_keys=off"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SqliteDSN(tt.input))
		})
	}
}

func TestConnectDb_Sqlite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		SqliteDB: filepath.Join(t.TempDir(), "blog.db"),
		LogLevel: "error",
	}

	db, err := ConnectDb(cfg, logging.New(io.Discard, "error", "text"))
	require.NoError(t, err)

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestConnectDb_UnknownDriver(t *testing.T) {
	cfg := &config.Config{DBDriver: "oracle"}

	_, err := ConnectDb(cfg, logging.New(io.Discard, "error", "text"))
	assert.Error(t, err)
}
