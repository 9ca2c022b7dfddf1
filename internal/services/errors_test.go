package services_test

import (
	"errors"
	"fmt"
	"testing"

	"hotpix/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "preview", "decode", "bad bytes", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "importer", "copy", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrValidation, "preview", "decode", "", nil), "validation"},
		{services.Wrap(services.ErrNotFound, "photos", "attach", "", nil), "not_found"},
		{services.Wrap(services.ErrDuplicate, "photos", "create", "", nil), "duplicate"},
		{services.Wrap(services.ErrStorageIO, "storage", "copy", "", nil), "storage_io"},
		{services.Wrap(services.ErrFatalSession, "importer", "preflight", "", nil), "fatal"},
		{fmt.Errorf("plain"), "transient"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(services.Wrap(services.ErrValidation, "", "", "", nil)) {
		t.Fatal("validation errors must not be fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrFatalSession, "importer", "preflight", "source unreadable", nil)) {
		t.Fatal("expected fatal classification")
	}
}
