// Package importer runs import sessions: it discovers files, drives the
// normalize/hash/register pipeline through a bounded worker pool, and keeps
// session counters current in the store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"hotpix/internal/config"
	"hotpix/internal/identity"
	"hotpix/internal/logging"
	"hotpix/internal/photos"
	"hotpix/internal/preview"
	"hotpix/internal/scan"
	"hotpix/internal/services"
	"hotpix/internal/storage"
)

// Tracker coordinates import sessions against a single store and library.
type Tracker struct {
	cfg        *config.Config
	store      *photos.Store
	normalizer *preview.Normalizer
	tiering    *storage.Manager
	logger     *slog.Logger
}

// NewTracker wires a Tracker from configuration. A nil logger is replaced
// with a no-op logger.
func NewTracker(cfg *config.Config, store *photos.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		cfg:        cfg,
		store:      store,
		normalizer: preview.NewNormalizer(preview.CanonicalSpec()),
		tiering:    storage.NewManager(cfg.Paths.LibraryDir),
		logger:     logging.NewComponentLogger(logger, "importer"),
	}
}

// StartImport runs a full import session over sourcePath and blocks until it
// reaches a terminal status. The returned session carries final counters.
// Preflight failures persist the session as failed with a fatal reason and
// return ErrFatalSession; per-file failures never abort the run.
func (t *Tracker) StartImport(ctx context.Context, sourcePath string) (*photos.ImportSession, error) {
	session, err := t.store.NewSession(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	ctx = services.WithSessionID(ctx, session.ID)
	log := t.logger
	log.InfoContext(ctx, "import session started", logging.String("source", sourcePath))

	if err := t.preflight(sourcePath); err != nil {
		log.ErrorContext(ctx, "import preflight failed", logging.Error(err))
		return t.failSession(ctx, session.ID, err)
	}

	files, err := scan.Discover(sourcePath, t.cfg.Import.IncludeHidden)
	if err != nil {
		return t.failSession(ctx, session.ID,
			services.Wrap(services.ErrFatalSession, "importer", "discover", sourcePath, err))
	}

	result := scan.Partition(files)
	for range files {
		if err := t.store.IncrementCounter(ctx, session.ID, photos.CounterTotalFilesFound); err != nil {
			return t.failSession(ctx, session.ID, err)
		}
	}
	for _, raw := range result.StandaloneRaw {
		if err := t.store.IncrementCounter(ctx, session.ID, photos.CounterSingleRawSkipped); err != nil {
			return t.failSession(ctx, session.ID, err)
		}
		log.InfoContext(services.WithFilePath(ctx, raw.Path), "standalone raw skipped")
	}

	t.runGroups(ctx, session.ID, log, result.Groups)

	if err := t.store.CompleteSession(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	final, err := t.store.GetSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "import session completed",
		logging.Int64("total", final.TotalFilesFound),
		logging.Int64("imported", final.ImagesImported),
		logging.Int64("duplicates", final.DuplicatesSkipped),
		logging.Int64("errors", final.ErrorsCount))
	return final, nil
}

// failSession marks the session failed with the causing error, so a run that
// aborts mid-flight still reaches a terminal status. Returns the persisted
// terminal session alongside the cause.
func (t *Tracker) failSession(ctx context.Context, id string, cause error) (*photos.ImportSession, error) {
	if err := t.store.FailSession(ctx, id, cause.Error()); err != nil {
		return nil, fmt.Errorf("mark session failed: %w", err)
	}
	failed, err := t.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return failed, cause
}

// preflight validates the session can run at all. Failures here are fatal:
// no per-file work is attempted.
func (t *Tracker) preflight(sourcePath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return services.Wrap(services.ErrFatalSession, "importer", "preflight", sourcePath, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrFatalSession, "importer", "preflight",
			fmt.Sprintf("%s is not a directory", sourcePath), nil)
	}
	return t.tiering.VerifyWritable()
}

// runGroups dispatches groups to a bounded worker pool. The cancel flag is
// checked between dispatches; in-flight groups always finish.
func (t *Tracker) runGroups(ctx context.Context, sessionID string, log *slog.Logger, groups []scan.Group) {
	workers := t.cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}

	work := make(chan scan.Group)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range work {
				t.processGroup(ctx, sessionID, log, group)
			}
		}()
	}

	for _, group := range groups {
		cancelled, err := t.store.CancelRequested(ctx, sessionID)
		if err != nil {
			log.WarnContext(ctx, "cancel flag check failed", logging.Error(err))
		}
		if cancelled {
			log.InfoContext(ctx, "cancellation requested, stopping dispatch")
			break
		}
		if ctx.Err() != nil {
			break
		}
		work <- group
	}
	close(work)
	wg.Wait()
}

// processGroup runs the per-file pipeline for one raster file and its
// optional RAW companion. Errors are recorded against the session; a failed
// raster still accounts for its companion so the counter sum stays aligned
// with total_files_found.
func (t *Tracker) processGroup(ctx context.Context, sessionID string, log *slog.Logger, group scan.Group) {
	ctx = services.WithFilePath(ctx, group.Raster.Path)
	if _, err := t.importFile(ctx, sessionID, group); err != nil {
		t.recordFileError(ctx, sessionID, log, group.Raster.Path, err)
	}
	if group.Raw != nil {
		if err := t.store.IncrementCounter(ctx, sessionID, photos.CounterRawFilesSkipped); err != nil {
			log.WarnContext(ctx, "raw counter update failed", logging.Error(err))
		}
	}
}

func (t *Tracker) importFile(ctx context.Context, sessionID string, group scan.Group) (*photos.ImageFile, error) {
	raster := group.Raster
	data, err := os.ReadFile(raster.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorageIO, "importer", "read", raster.Path, err)
	}

	canonical, meta, err := t.normalizer.Canonicalize(data, raster.Format)
	if err != nil {
		return nil, err
	}
	id, err := identity.Hash(canonical)
	if err != nil {
		return nil, err
	}

	coldPath, err := t.tiering.StoreCold(raster.Path, id.Hothash, raster.Format)
	if err != nil {
		return nil, err
	}

	file := &photos.ImageFile{
		PhotoHothash:    id.Hothash,
		Filename:        raster.Name,
		FilePath:        coldPath,
		FileSize:        raster.Size,
		FileFormat:      raster.Format,
		ImportSessionID: sessionID,
	}
	if group.Raw != nil {
		rawPath, err := t.tiering.StoreCold(group.Raw.Path, id.Hothash, group.Raw.Format)
		if err != nil {
			return nil, err
		}
		file.RawFilePath = rawPath
		file.RawFileSize = group.Raw.Size
		file.RawFileFormat = group.Raw.Format
	}

	_, created, err := t.store.FindOrCreatePhoto(ctx, photoFromIdentity(id, canonical, meta))
	if err != nil {
		return nil, err
	}
	inserted, err := t.store.AttachImageFile(ctx, file)
	if err != nil {
		return nil, err
	}

	counter := photos.CounterDuplicatesSkipped
	if created {
		counter = photos.CounterImagesImported
	}
	if err := t.store.IncrementCounter(ctx, sessionID, counter); err != nil {
		return nil, err
	}
	t.logger.DebugContext(ctx, "file registered",
		logging.String(logging.FieldHothash, id.Hothash),
		logging.Bool("created", created))
	return inserted, nil
}

func (t *Tracker) recordFileError(ctx context.Context, sessionID string, log *slog.Logger, path string, err error) {
	line := fmt.Sprintf("%s: %s: %v", path, services.Kind(err), err)
	log.WarnContext(ctx, "file import failed", logging.Error(err))
	if recordErr := t.store.RecordSessionError(ctx, sessionID, line); recordErr != nil {
		log.ErrorContext(ctx, "error log update failed", logging.Error(recordErr))
	}
}

func photoFromIdentity(id identity.Identity, canonical []byte, meta *preview.Metadata) *photos.Photo {
	return &photos.Photo{
		Hothash:        id.Hothash,
		HotPreview:     canonical,
		PerceptualHash: id.PerceptualHash,
		Width:          meta.Width,
		Height:         meta.Height,
		ExifSummary:    meta.Summary,
		TakenAt:        meta.TakenAt,
		GPSLatitude:    meta.Latitude,
		GPSLongitude:   meta.Longitude,
		Visibility:     photos.VisibilityPrivate,
	}
}

// GetSession returns the current counters and status for a session.
func (t *Tracker) GetSession(ctx context.Context, id string) (*photos.ImportSession, error) {
	session, err := t.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, services.Wrap(services.ErrNotFound, "importer", "get-session", id, nil)
	}
	return session, nil
}

// RequestCancel flags a running session for cancellation.
func (t *Tracker) RequestCancel(ctx context.Context, id string) error {
	return t.store.RequestCancel(ctx, id)
}

// CreateFromFile imports a single file outside any batch session. It fails
// with ErrDuplicate when the photo already exists; callers wanting to add a
// file to an existing photo use AttachFile instead.
func (t *Tracker) CreateFromFile(ctx context.Context, path string) (*photos.Photo, *photos.ImageFile, error) {
	data, info, format, err := t.readRaster(path)
	if err != nil {
		return nil, nil, err
	}
	canonical, meta, err := t.normalizer.Canonicalize(data, format)
	if err != nil {
		return nil, nil, err
	}
	id, err := identity.Hash(canonical)
	if err != nil {
		return nil, nil, err
	}

	// Cold placement comes first: a failed copy must not leave a photo row
	// behind, and an already-present cold file is harmless if the insert then
	// reports a duplicate.
	coldPath, err := t.tiering.StoreCold(path, id.Hothash, format)
	if err != nil {
		return nil, nil, err
	}
	if err := t.store.CreatePhoto(ctx, photoFromIdentity(id, canonical, meta)); err != nil {
		return nil, nil, err
	}
	file, err := t.store.AttachImageFile(ctx, &photos.ImageFile{
		PhotoHothash: id.Hothash,
		Filename:     filepath.Base(path),
		FilePath:     coldPath,
		FileSize:     info.Size(),
		FileFormat:   format,
	})
	if err != nil {
		return nil, nil, err
	}
	created, err := t.store.GetPhoto(ctx, id.Hothash)
	if err != nil {
		return nil, nil, err
	}
	return created, file, nil
}

// AttachFile records an additional original for an existing photo. The file
// must decode; it is placed in the cold tier under the photo's hothash.
func (t *Tracker) AttachFile(ctx context.Context, hothash, path string) (*photos.ImageFile, error) {
	photo, err := t.store.GetPhoto(ctx, hothash)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, services.Wrap(services.ErrNotFound, "importer", "attach", hothash, nil)
	}

	data, info, format, err := t.readRaster(path)
	if err != nil {
		return nil, err
	}
	if _, _, err := t.normalizer.Canonicalize(data, format); err != nil {
		return nil, err
	}
	coldPath, err := t.tiering.StoreCold(path, hothash, format)
	if err != nil {
		return nil, err
	}
	return t.store.AttachImageFile(ctx, &photos.ImageFile{
		PhotoHothash: hothash,
		Filename:     filepath.Base(path),
		FilePath:     coldPath,
		FileSize:     info.Size(),
		FileFormat:   format,
	})
}

// DeletePhoto removes a photo and its ledger records. Cold originals stay in
// place: the library is content-addressed and placement is idempotent.
func (t *Tracker) DeletePhoto(ctx context.Context, hothash string) error {
	return t.store.DeletePhoto(ctx, hothash)
}

func (t *Tracker) readRaster(path string) ([]byte, os.FileInfo, string, error) {
	format := preview.FormatForPath(path)
	if preview.IsRawFormat(format) {
		return nil, nil, "", services.Wrap(services.ErrValidation, "importer", "read",
			fmt.Sprintf("raw file %s cannot be submitted directly", path), nil)
	}
	if !preview.IsRasterFormat(format) {
		return nil, nil, "", services.Wrap(services.ErrValidation, "importer", "read",
			fmt.Sprintf("unsupported format %q", format), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, "", services.Wrap(services.ErrStorageIO, "importer", "read", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, "", services.Wrap(services.ErrStorageIO, "importer", "read", path, err)
	}
	return data, info, format, nil
}
