package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	filePathKey  contextKey = "file_path"
)

// WithSessionID attaches an import session identifier to the context for
// structured logging.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the import session identifier, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// WithFilePath attaches the file currently being processed to the context.
func WithFilePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, filePathKey, path)
}

// FilePathFromContext extracts the in-flight file path, if any.
func FilePathFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	path, ok := ctx.Value(filePathKey).(string)
	return path, ok && path != ""
}
