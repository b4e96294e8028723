package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	conn := filepath.Join(t.TempDir(), "nested", "alari.db") + "?_pragma=foreign_keys(1)"
	database, err := Init("sqlite", conn)
	require.NoError(t, err)
	defer Close(database)
	database.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(database.DB, "sqlite"))

	report := Health(context.Background(), database)
	assert.Equal(t, "healthy", report.Status)
	assert.Len(t, report.RowCounts, len(Tables))
	for _, table := range Tables {
		assert.Zero(t, report.RowCounts[table], table)
	}

	// goals and check-ins are the newest migration
	require.NoError(t, MigrateDown(database.DB, "sqlite"))
	report = Health(context.Background(), database)
	assert.Equal(t, "unhealthy", report.Status)
	assert.Contains(t, report.Error, "goals")

	require.NoError(t, RunMigrations(database.DB, "sqlite"))
	report = Health(context.Background(), database)
	assert.Equal(t, "healthy", report.Status)
}

func TestHealthClosedDatabase(t *testing.T) {
	database, err := Init("sqlite", filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, database.Close())

	report := Health(context.Background(), database)
	assert.Equal(t, "unhealthy", report.Status)
	assert.NotEmpty(t, report.Error)
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "mysql", getDialect("mysql"))
}
