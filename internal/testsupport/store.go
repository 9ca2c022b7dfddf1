package testsupport

import (
	"testing"

	"hotpix/internal/config"
	"hotpix/internal/photos"
)

// MustOpenStore opens a photos.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *photos.Store {
	t.Helper()

	store, err := photos.Open(cfg)
	if err != nil {
		t.Fatalf("photos.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
