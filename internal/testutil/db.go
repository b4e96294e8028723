// Package testutil provides a migrated throwaway database for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/alari/backend/internal/db"
)

// NewDB opens a fresh SQLite file under t.TempDir and migrates it.
// The pool holds a single connection, so code running inside a
// transaction must only use that transaction.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	conn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	t.Cleanup(func() {
		database.Close()
	})

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}
