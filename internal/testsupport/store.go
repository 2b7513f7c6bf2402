package testsupport

import (
	"testing"

	"equiv/internal/config"
	"equiv/internal/store"
)

// MustOpenStore opens the configured database for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
