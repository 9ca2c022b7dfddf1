package photos

import (
	"database/sql"
	"fmt"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*Photo, error) {
	var (
		photo     Photo
		summary   sql.NullString
		takenAt   sql.NullString
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&photo.Hothash,
		&photo.HotPreview,
		&photo.PerceptualHash,
		&photo.Width,
		&photo.Height,
		&summary,
		&takenAt,
		&latitude,
		&longitude,
		&photo.Rating,
		&photo.Tags,
		&photo.Visibility,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	photo.ExifSummary = summary.String
	if takenAt.Valid {
		parsed, err := parseTimeString(takenAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse taken_at: %w", err)
		}
		photo.TakenAt = &parsed
	}
	if latitude.Valid {
		photo.GPSLatitude = &latitude.Float64
	}
	if longitude.Valid {
		photo.GPSLongitude = &longitude.Float64
	}
	if photo.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if photo.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &photo, nil
}

func scanImageFile(row rowScanner) (*ImageFile, error) {
	var (
		file      ImageFile
		rawPath   sql.NullString
		rawSize   sql.NullInt64
		rawFormat sql.NullString
		sessionID sql.NullString
		createdAt string
	)
	err := row.Scan(
		&file.ID,
		&file.PhotoHothash,
		&file.Filename,
		&file.FilePath,
		&file.FileSize,
		&file.FileFormat,
		&rawPath,
		&rawSize,
		&rawFormat,
		&sessionID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	file.RawFilePath = rawPath.String
	file.RawFileSize = rawSize.Int64
	file.RawFileFormat = rawFormat.String
	file.ImportSessionID = sessionID.String
	if file.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &file, nil
}

func scanSession(row rowScanner) (*ImportSession, error) {
	var (
		session     ImportSession
		status      string
		cancel      int
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.SourcePath,
		&status,
		&session.TotalFilesFound,
		&session.ImagesImported,
		&session.DuplicatesSkipped,
		&session.RawFilesSkipped,
		&session.SingleRawSkipped,
		&session.ErrorsCount,
		&session.ErrorLog,
		&session.FatalReason,
		&cancel,
		&createdAt,
		&updatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Status = SessionStatus(status)
	session.CancelRequested = cancel != 0
	if session.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid {
		parsed, err := parseTimeString(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		session.CompletedAt = &parsed
	}
	return &session, nil
}

func parseTimeString(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
