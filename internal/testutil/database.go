package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"isearch/internal/catalog"
	"isearch/internal/database"
)

// NewTestStore creates a new in-memory catalog with migrations applied.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T, clock catalog.Clock) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", nil, clock)
	require.NoError(t, err, "opening in-memory catalog")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// MustUpsert inserts records into store, failing the test on error.
func MustUpsert(t *testing.T, store catalog.Store, records ...*catalog.FileRecord) {
	t.Helper()
	for _, rec := range records {
		_, err := store.UpsertFile(rec)
		require.NoError(t, err, "UpsertFile(%s)", rec.Path)
	}
}
