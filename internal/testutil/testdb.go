package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB returns a migrated in-memory database that is closed with the test.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "open in-memory budget store")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
