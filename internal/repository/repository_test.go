package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BBlazev/OCUgRPC/internal/database"
)

// setupTestDB opens a fresh sqlite store in a per-test temp directory,
// with the same WAL and locking configuration production uses.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
