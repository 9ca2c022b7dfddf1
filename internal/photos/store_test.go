package photos_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hotpix/internal/photos"
	"hotpix/internal/services"
	"hotpix/internal/testsupport"
)

func newPhoto(hothash string) *photos.Photo {
	return &photos.Photo{
		Hothash:        hothash,
		HotPreview:     []byte("jpeg-bytes-" + hothash),
		PerceptualHash: "d:00ff00ff00ff00ff",
		Width:          1024,
		Height:         768,
	}
}

func TestFindOrCreatePhotoConverges(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, created, err := store.FindOrCreatePhoto(ctx, newPhoto("abc123"))
	if err != nil {
		t.Fatalf("FindOrCreatePhoto: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the photo")
	}
	if first.Visibility != photos.VisibilityPrivate {
		t.Fatalf("expected default visibility private, got %q", first.Visibility)
	}

	// A second candidate with different attributes must not overwrite the row.
	other := newPhoto("abc123")
	other.Width = 99
	second, created, err := store.FindOrCreatePhoto(ctx, other)
	if err != nil {
		t.Fatalf("FindOrCreatePhoto second: %v", err)
	}
	if created {
		t.Fatal("expected second call to find the existing photo")
	}
	if second.Width != 1024 {
		t.Fatalf("existing photo mutated: width %d", second.Width)
	}
}

func TestFindOrCreatePhotoConcurrent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	const goroutines = 8
	results := make(chan bool, goroutines)
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			_, created, err := store.FindOrCreatePhoto(ctx, newPhoto("race"))
			if err != nil {
				errs <- err
				return
			}
			results <- created
		}()
	}

	var wins int
	for i := 0; i < goroutines; i++ {
		select {
		case err := <-errs:
			t.Fatalf("FindOrCreatePhoto: %v", err)
		case created := <-results:
			if created {
				wins++
			}
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one creator, got %d", wins)
	}
	count, err := store.CountPhotos(ctx)
	if err != nil {
		t.Fatalf("CountPhotos: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one photo row, got %d", count)
	}
}

func TestCreatePhotoDuplicate(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreatePhoto(ctx, newPhoto("dup")); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	err := store.CreatePhoto(ctx, newPhoto("dup"))
	if !errors.Is(err, services.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAttachImageFileRequiresPhoto(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.AttachImageFile(context.Background(), &photos.ImageFile{
		PhotoHothash: "missing",
		Filename:     "IMG_0001.JPG",
		FilePath:     "/library/aa/bb/missing.jpg",
		FileSize:     100,
		FileFormat:   "jpg",
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImageFileLedger(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreatePhoto(ctx, newPhoto("owner")); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}

	withRaw, err := store.AttachImageFile(ctx, &photos.ImageFile{
		PhotoHothash:    "owner",
		Filename:        "IMG_0001.JPG",
		FilePath:        "/library/ow/ne/owner.jpg",
		FileSize:        2048,
		FileFormat:      "jpg",
		RawFilePath:     "/library/ow/ne/owner.cr2",
		RawFileSize:     30000,
		RawFileFormat:   "cr2",
		ImportSessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("AttachImageFile with raw: %v", err)
	}
	if withRaw.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if !withRaw.HasRawCompanion() {
		t.Fatal("expected raw companion")
	}

	plain, err := store.AttachImageFile(ctx, &photos.ImageFile{
		PhotoHothash: "owner",
		Filename:     "copy.jpg",
		FilePath:     "/library/ow/ne/copy.jpg",
		FileSize:     2048,
		FileFormat:   "jpg",
	})
	if err != nil {
		t.Fatalf("AttachImageFile plain: %v", err)
	}
	if plain.HasRawCompanion() {
		t.Fatal("unexpected raw companion")
	}

	files, err := store.ImageFilesForPhoto(ctx, "owner")
	if err != nil {
		t.Fatalf("ImageFilesForPhoto: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 ledger records, got %d", len(files))
	}
	if files[0].RawFileFormat != "cr2" || files[1].RawFilePath != "" {
		t.Fatalf("ledger order or raw fields wrong: %+v", files)
	}

	bySession, err := store.ImageFilesForSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ImageFilesForSession: %v", err)
	}
	if len(bySession) != 1 || bySession[0].ID != withRaw.ID {
		t.Fatalf("session query returned %+v", bySession)
	}
}

func TestDeletePhotoCascades(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreatePhoto(ctx, newPhoto("gone")); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	attached, err := store.AttachImageFile(ctx, &photos.ImageFile{
		PhotoHothash: "gone",
		Filename:     "a.jpg",
		FilePath:     "/library/go/ne/gone.jpg",
		FileSize:     1,
		FileFormat:   "jpg",
	})
	if err != nil {
		t.Fatalf("AttachImageFile: %v", err)
	}

	if err := store.DeletePhoto(ctx, "gone"); err != nil {
		t.Fatalf("DeletePhoto: %v", err)
	}
	file, err := store.GetImageFile(ctx, attached.ID)
	if err != nil {
		t.Fatalf("GetImageFile: %v", err)
	}
	if file != nil {
		t.Fatal("expected cascade to remove image file")
	}
	if err := store.DeletePhoto(ctx, "gone"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdatePhotoMetadata(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreatePhoto(ctx, newPhoto("meta")); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	photo, err := store.GetPhoto(ctx, "meta")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	taken := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)
	lat, lon := 48.8584, 2.2945
	photo.ExifSummary = "Canon EOS R5"
	photo.TakenAt = &taken
	photo.GPSLatitude = &lat
	photo.GPSLongitude = &lon
	photo.Rating = 4
	photo.Tags = "travel,paris"
	photo.Visibility = photos.VisibilityPublic

	if err := store.UpdatePhotoMetadata(ctx, photo); err != nil {
		t.Fatalf("UpdatePhotoMetadata: %v", err)
	}

	reloaded, err := store.GetPhoto(ctx, "meta")
	if err != nil {
		t.Fatalf("GetPhoto reload: %v", err)
	}
	if reloaded.ExifSummary != "Canon EOS R5" || reloaded.Rating != 4 {
		t.Fatalf("metadata not persisted: %+v", reloaded)
	}
	if reloaded.TakenAt == nil || !reloaded.TakenAt.Equal(taken) {
		t.Fatalf("taken_at not persisted: %v", reloaded.TakenAt)
	}
	if reloaded.GPSLatitude == nil || *reloaded.GPSLatitude != lat {
		t.Fatalf("gps not persisted: %v", reloaded.GPSLatitude)
	}
	if reloaded.Visibility != photos.VisibilityPublic {
		t.Fatalf("visibility not persisted: %q", reloaded.Visibility)
	}

	missing := newPhoto("absent")
	if err := store.UpdatePhotoMetadata(ctx, missing); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHotPreview(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.CreatePhoto(ctx, newPhoto("hot")); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	preview, err := store.HotPreview(ctx, "hot")
	if err != nil {
		t.Fatalf("HotPreview: %v", err)
	}
	if string(preview) != "jpeg-bytes-hot" {
		t.Fatalf("unexpected preview bytes: %q", preview)
	}
	if _, err := store.HotPreview(ctx, "cold"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	session, err := store.NewSession(ctx, "/mnt/card")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if session.Status != photos.SessionInProgress {
		t.Fatalf("expected in_progress, got %s", session.Status)
	}
	if session.CompletedAt != nil {
		t.Fatal("unexpected completion timestamp")
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrementCounter(ctx, session.ID, photos.CounterTotalFilesFound); err != nil {
			t.Fatalf("IncrementCounter: %v", err)
		}
	}
	if err := store.IncrementCounter(ctx, session.ID, photos.CounterImagesImported); err != nil {
		t.Fatalf("IncrementCounter imported: %v", err)
	}
	if err := store.RecordSessionError(ctx, session.ID, "/mnt/card/bad.jpg: validation: decode failed"); err != nil {
		t.Fatalf("RecordSessionError: %v", err)
	}
	if err := store.RecordSessionError(ctx, session.ID, "/mnt/card/worse.jpg: storage_io: copy failed"); err != nil {
		t.Fatalf("RecordSessionError second: %v", err)
	}

	if err := store.CompleteSession(ctx, session.ID); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	final, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if final.Status != photos.SessionCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.TotalFilesFound != 3 || final.ImagesImported != 1 || final.ErrorsCount != 2 {
		t.Fatalf("counters wrong: %+v", final)
	}
	lines := strings.Split(final.ErrorLog, "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "worse.jpg") {
		t.Fatalf("error log wrong: %q", final.ErrorLog)
	}
	if final.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestSessionFailAndCancel(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	session, err := store.NewSession(ctx, "/mnt/card")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	cancelled, err := store.CancelRequested(ctx, session.ID)
	if err != nil {
		t.Fatalf("CancelRequested: %v", err)
	}
	if cancelled {
		t.Fatal("fresh session should not be cancelled")
	}
	if err := store.RequestCancel(ctx, session.ID); err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	cancelled, err = store.CancelRequested(ctx, session.ID)
	if err != nil {
		t.Fatalf("CancelRequested after flag: %v", err)
	}
	if !cancelled {
		t.Fatal("expected cancel flag")
	}

	if err := store.FailSession(ctx, session.ID, "library directory not writable"); err != nil {
		t.Fatalf("FailSession: %v", err)
	}
	failed, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if failed.Status != photos.SessionFailed || failed.FatalReason == "" {
		t.Fatalf("failure not recorded: %+v", failed)
	}
	if !failed.Status.Terminal() {
		t.Fatal("failed status should be terminal")
	}
}

func TestIncrementCounterRejectsUnknown(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	session, err := store.NewSession(ctx, "/mnt/card")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := store.IncrementCounter(ctx, session.ID, photos.Counter("status")); err == nil {
		t.Fatal("expected rejection of unknown counter")
	}
	if err := store.IncrementCounter(ctx, "no-such-session", photos.CounterErrorsCount); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.NewSession(ctx, "/mnt/a")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.NewSession(ctx, "/mnt/b")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Fatalf("unexpected ordering: %s then %s", sessions[0].ID, sessions[1].ID)
	}
}
