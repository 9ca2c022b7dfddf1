package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotpix/internal/services"
)

const photoColumns = "hothash, hotpreview, perceptual_hash, width, height, exif_summary, taken_at, gps_latitude, gps_longitude, rating, tags, visibility, created_at, updated_at"

const insertPhotoSQL = `INSERT INTO photos (` + photoColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// FindOrCreatePhoto returns the Photo for photo.Hothash, inserting it when no
// row exists yet. The insert uses ON CONFLICT DO NOTHING, so concurrent
// callers racing on the same hothash converge on a single row: losers simply
// observe created=false. Existing rows are returned unchanged; the candidate
// attributes are ignored for them.
func (s *Store) FindOrCreatePhoto(ctx context.Context, photo *Photo) (*Photo, bool, error) {
	if photo == nil {
		return nil, false, errors.New("photo is nil")
	}
	if photo.Hothash == "" {
		return nil, false, errors.New("photo hothash is empty")
	}

	res, err := s.execWithRetry(ctx,
		insertPhotoSQL+` ON CONFLICT(hothash) DO NOTHING`,
		photoInsertArgs(photo, time.Now().UTC())...,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	existing, err := s.GetPhoto(ctx, photo.Hothash)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The row was deleted between insert and read; surface as not found
		// so the caller retries the whole pipeline for this file.
		return nil, false, services.Wrap(services.ErrNotFound, "photos", "find-or-create", photo.Hothash, nil)
	}
	return existing, affected == 1, nil
}

// CreatePhoto inserts a Photo and fails with ErrDuplicate when the hothash is
// already registered. Used by the direct (non-batch) submission path, whose
// callers are expected to switch to the attach path on conflict.
func (s *Store) CreatePhoto(ctx context.Context, photo *Photo) error {
	if photo == nil {
		return errors.New("photo is nil")
	}
	if photo.Hothash == "" {
		return errors.New("photo hothash is empty")
	}

	_, err := s.execWithRetry(ctx, insertPhotoSQL, photoInsertArgs(photo, time.Now().UTC())...)
	if err != nil {
		if isUniqueViolation(err) {
			return services.Wrap(services.ErrDuplicate, "photos", "create", photo.Hothash, nil)
		}
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhoto fetches a Photo by hothash. Returns nil when absent.
func (s *Store) GetPhoto(ctx context.Context, hothash string) (*Photo, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+photoColumns+` FROM photos WHERE hothash = ?`, hothash)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

// HotPreview returns the inline canonical preview bytes for a photo.
func (s *Store) HotPreview(ctx context.Context, hothash string) ([]byte, error) {
	var preview []byte
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT hotpreview FROM photos WHERE hothash = ?`, hothash).Scan(&preview)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "photos", "hot-preview", hothash, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get hot preview: %w", err)
	}
	return preview, nil
}

// UpdatePhotoMetadata persists the mutable user metadata of a Photo. Identity
// fields (hothash, hotpreview, perceptual hash) are never touched.
func (s *Store) UpdatePhotoMetadata(ctx context.Context, photo *Photo) error {
	if photo == nil {
		return errors.New("photo is nil")
	}
	photo.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE photos
         SET exif_summary = ?, taken_at = ?, gps_latitude = ?, gps_longitude = ?,
             rating = ?, tags = ?, visibility = ?, updated_at = ?
         WHERE hothash = ?`,
		nullableString(photo.ExifSummary),
		nullableTime(photo.TakenAt),
		nullableFloat(photo.GPSLatitude),
		nullableFloat(photo.GPSLongitude),
		photo.Rating,
		photo.Tags,
		photo.Visibility,
		photo.UpdatedAt.Format(time.RFC3339Nano),
		photo.Hothash,
	)
	if err != nil {
		return fmt.Errorf("update photo metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "photos", "update-metadata", photo.Hothash, nil)
	}
	return nil
}

// DeletePhoto removes a Photo and, via the foreign key cascade, every
// ImageFile it owns. Unknown hothashes fail with ErrNotFound.
func (s *Store) DeletePhoto(ctx context.Context, hothash string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM photos WHERE hothash = ?`, hothash)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "photos", "delete", hothash, nil)
	}
	return nil
}

// ListPhotos returns all photos ordered by creation time.
func (s *Store) ListPhotos(ctx context.Context) ([]*Photo, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+photoColumns+` FROM photos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photosList []*Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photosList = append(photosList, photo)
	}
	return photosList, rows.Err()
}

// CountPhotos returns the number of registered photos.
func (s *Store) CountPhotos(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM photos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return count, nil
}

func photoInsertArgs(photo *Photo, now time.Time) []any {
	createdAt := photo.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	visibility := photo.Visibility
	if visibility == "" {
		visibility = VisibilityPrivate
	}
	return []any{
		photo.Hothash,
		photo.HotPreview,
		photo.PerceptualHash,
		photo.Width,
		photo.Height,
		nullableString(photo.ExifSummary),
		nullableTime(photo.TakenAt),
		nullableFloat(photo.GPSLatitude),
		nullableFloat(photo.GPSLongitude),
		photo.Rating,
		photo.Tags,
		visibility,
		createdAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	}
}
