package testsupport

import (
	"path/filepath"
	"testing"

	"hotpix/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DatabasePath = filepath.Join(base, "hotpix.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Import.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the import worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Import.Workers = workers
	}
}

// WithIncludeHidden toggles dot-file scanning on the test config.
func WithIncludeHidden(include bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Import.IncludeHidden = include
	}
}
