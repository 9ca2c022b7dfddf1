package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotpix/internal/services"
	"hotpix/internal/storage"
	"hotpix/internal/testsupport"
)

const testHothash = "deadbeef00112233445566778899aabbccddeeff00112233445566778899aabb"

func TestColdPathSharding(t *testing.T) {
	mgr := storage.NewManager("/library")

	path, err := mgr.ColdPath(testHothash, "jpg")
	if err != nil {
		t.Fatalf("ColdPath: %v", err)
	}
	want := filepath.Join("/library", "de", "ad", testHothash+".jpg")
	if path != want {
		t.Fatalf("got %s, want %s", path, want)
	}

	if _, err := mgr.ColdPath("abc", "jpg"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for short hash, got %v", err)
	}
}

func TestStoreColdPlacesAndShortCircuits(t *testing.T) {
	root := t.TempDir()
	mgr := storage.NewManager(root)

	src := filepath.Join(t.TempDir(), "IMG_0001.JPG")
	if err := os.WriteFile(src, []byte("original-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	placed, err := mgr.StoreCold(src, testHothash, "jpg")
	if err != nil {
		t.Fatalf("StoreCold: %v", err)
	}
	data, err := os.ReadFile(placed)
	if err != nil {
		t.Fatalf("read placed file: %v", err)
	}
	if string(data) != "original-bytes" {
		t.Fatalf("placed content mismatch: %q", data)
	}
	if !strings.HasPrefix(placed, root) {
		t.Fatalf("placed outside root: %s", placed)
	}

	// Same hothash again: existing destination wins, source is not re-read.
	again, err := mgr.StoreCold(filepath.Join(t.TempDir(), "absent.jpg"), testHothash, "jpg")
	if err != nil {
		t.Fatalf("StoreCold repeat: %v", err)
	}
	if again != placed {
		t.Fatalf("expected short-circuit to same path, got %s", again)
	}
}

func TestStoreColdMissingSource(t *testing.T) {
	mgr := storage.NewManager(t.TempDir())

	_, err := mgr.StoreCold("/no/such/file.jpg", testHothash, "jpg")
	if !errors.Is(err, services.ErrStorageIO) {
		t.Fatalf("expected ErrStorageIO, got %v", err)
	}
}

func TestProbeRecomputesDimensions(t *testing.T) {
	root := t.TempDir()
	mgr := storage.NewManager(root)

	img := testsupport.NewTestImage(320, 200, 1)
	src := filepath.Join(t.TempDir(), "shot.jpg")
	if err := os.WriteFile(src, testsupport.EncodeJPEG(t, img), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if _, err := mgr.StoreCold(src, testHothash, "jpg"); err != nil {
		t.Fatalf("StoreCold: %v", err)
	}

	cold, err := mgr.Probe(testHothash, "jpg")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if cold.Width != 320 || cold.Height != 200 {
		t.Fatalf("dimensions wrong: %dx%d", cold.Width, cold.Height)
	}
	if cold.Size == 0 {
		t.Fatal("expected non-zero size")
	}

	if _, err := mgr.Probe(strings.Repeat("f", 64), "jpg"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyWritableCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library", "nested")
	mgr := storage.NewManager(root)

	if err := mgr.VerifyWritable(); err != nil {
		t.Fatalf("VerifyWritable: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}
