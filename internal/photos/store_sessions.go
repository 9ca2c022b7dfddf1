package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotpix/internal/services"
)

const sessionColumns = "id, source_path, status, total_files_found, images_imported, duplicates_skipped, raw_files_skipped, single_raw_skipped, errors_count, error_log, fatal_reason, cancel_requested, created_at, updated_at, completed_at"

// NewSession inserts an in-progress import session for a source directory.
func (s *Store) NewSession(ctx context.Context, sourcePath string) (*ImportSession, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("source path is empty")
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.execWithRetry(ctx,
		`INSERT INTO import_sessions (id, source_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id, sourcePath, SessionInProgress, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. Returns nil when absent.
func (s *Store) GetSession(ctx context.Context, id string) (*ImportSession, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM import_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*ImportSession, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM import_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*ImportSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// IncrementCounter atomically bumps one session counter by one. Counters are
// single-row SQL increments, so concurrent workers never lose updates.
func (s *Store) IncrementCounter(ctx context.Context, id string, counter Counter) error {
	if _, ok := validCounters[counter]; !ok {
		return fmt.Errorf("unknown session counter %q", counter)
	}
	// counter is validated against a closed set before interpolation.
	query := `UPDATE import_sessions SET ` + string(counter) + ` = ` + string(counter) + ` + 1, updated_at = ? WHERE id = ?`
	res, err := s.execWithRetry(ctx, query, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	return requireSessionRow(res, id)
}

// RecordSessionError appends one line to the session error log and bumps
// errors_count, in a single statement.
func (s *Store) RecordSessionError(ctx context.Context, id, line string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE import_sessions
         SET errors_count = errors_count + 1,
             error_log = CASE WHEN error_log = '' THEN ? ELSE error_log || char(10) || ? END,
             updated_at = ?
         WHERE id = ?`,
		line, line, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("record session error: %w", err)
	}
	return requireSessionRow(res, id)
}

// CompleteSession marks a session terminal with status completed.
func (s *Store) CompleteSession(ctx context.Context, id string) error {
	return s.finishSession(ctx, id, SessionCompleted, "")
}

// FailSession marks a session terminal with status failed and records the
// fatal reason.
func (s *Store) FailSession(ctx context.Context, id, reason string) error {
	return s.finishSession(ctx, id, SessionFailed, reason)
}

func (s *Store) finishSession(ctx context.Context, id string, status SessionStatus, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE import_sessions
         SET status = ?, fatal_reason = ?, updated_at = ?, completed_at = ?
         WHERE id = ?`,
		status, reason, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return requireSessionRow(res, id)
}

// RequestCancel flags a session for cancellation. The tracker observes the
// flag between files; in-flight work completes normally.
func (s *Store) RequestCancel(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE import_sessions SET cancel_requested = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("request cancel: %w", err)
	}
	return requireSessionRow(res, id)
}

// CancelRequested reports whether a cancellation flag is set for the session.
func (s *Store) CancelRequested(ctx context.Context, id string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT cancel_requested FROM import_sessions WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, services.Wrap(services.ErrNotFound, "photos", "cancel-requested", id, nil)
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag != 0, nil
}

func requireSessionRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "photos", "session", id, nil)
	}
	return nil
}
