package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotpix/internal/services"
)

const imageFileColumns = "id, photo_hothash, filename, file_path, file_size, file_format, raw_file_path, raw_file_size, raw_file_format, import_session_id, created_at"

// AttachImageFile appends an immutable ImageFile record to an existing
// Photo's ledger. It fails with ErrNotFound when the hothash references no
// Photo. Both the new-photo and duplicate-import paths go through this once
// the Photo row exists; there is deliberately no update operation for image
// files.
func (s *Store) AttachImageFile(ctx context.Context, file *ImageFile) (*ImageFile, error) {
	if file == nil {
		return nil, errors.New("image file is nil")
	}
	if file.PhotoHothash == "" {
		return nil, errors.New("image file hothash is empty")
	}
	ctx = ensureContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attach tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM photos WHERE hothash = ?`, file.PhotoHothash).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check photo: %w", err)
	}
	if exists == 0 {
		return nil, services.Wrap(services.ErrNotFound, "photos", "attach", file.PhotoHothash, nil)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO image_files (
            photo_hothash, filename, file_path, file_size, file_format,
            raw_file_path, raw_file_size, raw_file_format, import_session_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.PhotoHothash,
		file.Filename,
		file.FilePath,
		file.FileSize,
		file.FileFormat,
		nullableString(file.RawFilePath),
		nullableInt(file.RawFileSize),
		nullableString(file.RawFileFormat),
		nullableString(file.ImportSessionID),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert image file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attach: %w", err)
	}

	inserted := *file
	inserted.ID = id
	inserted.CreatedAt = now
	return &inserted, nil
}

// GetImageFile fetches a ledger record by identifier. Returns nil when
// absent.
func (s *Store) GetImageFile(ctx context.Context, id int64) (*ImageFile, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+imageFileColumns+` FROM image_files WHERE id = ?`, id)
	file, err := scanImageFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image file: %w", err)
	}
	return file, nil
}

// ImageFilesForPhoto returns the ledger records owned by a Photo, oldest
// first. Ownership is always resolved through this query; photos never hold
// in-memory file collections.
func (s *Store) ImageFilesForPhoto(ctx context.Context, hothash string) ([]*ImageFile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+imageFileColumns+` FROM image_files WHERE photo_hothash = ? ORDER BY id`, hothash)
	if err != nil {
		return nil, fmt.Errorf("query image files: %w", err)
	}
	defer rows.Close()

	var files []*ImageFile
	for rows.Next() {
		file, err := scanImageFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ImageFilesForSession returns the ledger records a session produced, for
// auditing. The session does not own them; deleting a session never touches
// image files.
func (s *Store) ImageFilesForSession(ctx context.Context, sessionID string) ([]*ImageFile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+imageFileColumns+` FROM image_files WHERE import_session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session files: %w", err)
	}
	defer rows.Close()

	var files []*ImageFile
	for rows.Next() {
		file, err := scanImageFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
