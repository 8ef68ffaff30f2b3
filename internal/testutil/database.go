package testutil

import (
	"testing"

	"tempo-go/internal/database"
	"tempo-go/internal/tempo"
)

// NewTestDatabase creates a new in-memory project registry with the schema migrated.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock tempo.Clock) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}
