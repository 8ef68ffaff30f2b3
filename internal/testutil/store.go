package testutil

import (
	"testing"

	"tempo-go/internal/encryption"
	"tempo-go/internal/store"
)

// NewTestStore creates a plaintext in-memory day store.
func NewTestStore() *store.Store {
	return store.NewMemoryStore(nil)
}

// NewSealedTestStore creates a filesystem store in a temp dir whose day
// files go through the test cipher.
func NewSealedTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.NewFileSystemStore(t.TempDir(), encryption.NewTestCipher())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return st
}
