package testsupport

import (
	"context"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/media"
	"mediasort/internal/metadata"
	"mediasort/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.OpenFromConfig(cfg, false)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustInsert writes a record for tests and returns its id.
func MustInsert(t testing.TB, st *store.Store, category media.Category, payload metadata.Payload) int64 {
	t.Helper()

	id, err := st.Insert(context.Background(), category, payload)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return id
}
