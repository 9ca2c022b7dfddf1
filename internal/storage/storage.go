// Package storage manages the cold tier: original files placed under the
// library root in a content-addressed layout keyed by hothash.
package storage

import (
	"bytes"
	"image"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	"hotpix/internal/fileutil"
	"hotpix/internal/services"
)

// Manager resolves and writes cold-tier paths under a library root.
type Manager struct {
	root string
}

// NewManager returns a Manager rooted at the library directory.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the library directory.
func (m *Manager) Root() string {
	return m.root
}

// ColdPath returns the content-addressed location for an original:
// <root>/<hh[0:2]>/<hh[2:4]>/<hothash>.<format>. Two-level sharding keeps
// directory fan-out bounded on large libraries.
func (m *Manager) ColdPath(hothash, format string) (string, error) {
	if len(hothash) < 4 {
		return "", services.Wrap(services.ErrValidation, "storage", "cold-path", "hothash too short", nil)
	}
	return filepath.Join(m.root, hothash[0:2], hothash[2:4], hothash+"."+format), nil
}

// StoreCold copies an original into the cold tier with hash-verified
// placement. An already-present destination short-circuits: content-addressed
// names make overwriting pointless. Returns the final cold path.
func (m *Manager) StoreCold(src, hothash, format string) (string, error) {
	dst, err := m.ColdPath(hothash, format)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", services.Wrap(services.ErrStorageIO, "storage", "store-cold", "create shard directory", err)
	}
	if err := fileutil.CopyVerified(src, dst); err != nil {
		return "", services.Wrap(services.ErrStorageIO, "storage", "store-cold", src, err)
	}
	return dst, nil
}

// ColdFile describes an original in the cold tier. Dimensions are decoded
// from the file on each probe; derived attributes are recomputed, not cached.
type ColdFile struct {
	Path   string
	Size   int64
	Width  int
	Height int
}

// Probe stats and decodes the header of a cold original. It fails with
// ErrNotFound when the file is missing from the tier.
func (m *Manager) Probe(hothash, format string) (*ColdFile, error) {
	path, err := m.ColdPath(hothash, format)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "storage", "probe", path, nil)
		}
		return nil, services.Wrap(services.ErrStorageIO, "storage", "probe", path, err)
	}

	cold := &ColdFile{Path: path, Size: info.Size()}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "storage", "probe", path, err)
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		cold.Width = cfg.Width
		cold.Height = cfg.Height
	}
	return cold, nil
}

// VerifyWritable confirms the library root exists and accepts new files.
// Import sessions run this as a preflight; failure is fatal for the session.
func (m *Manager) VerifyWritable() error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return services.Wrap(services.ErrFatalSession, "storage", "preflight", m.root, err)
	}
	if err := fileutil.IsWritableDir(m.root); err != nil {
		return services.Wrap(services.ErrFatalSession, "storage", "preflight", m.root, err)
	}
	return nil
}
