// Package testutil provides shared fixtures for deckflow tests: migrated
// in-memory databases and generated workbooks.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/deckflow/internal/storage"
)

// SetupTestDB creates a new in-memory test database with migrations applied.
// The database is closed when the test finishes.
//
// Example:
//
//	store := testutil.SetupTestDB(t)
//	descs, exists, err := store.CatalogedFiles(ctx, "hsm_price_deck")
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return store
}
