package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the closed set of error kinds the core distinguishes.
// Components wrap failures with one of these so callers can classify with
// errors.Is without inspecting message text.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrStorageIO    = errors.New("storage io error")
	ErrFatalSession = errors.New("fatal session error")
	ErrTransient    = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error aborts an entire import session rather
// than a single file.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalSession)
}

// Kind returns the short classification name for an error, or "transient"
// when no known marker is present. Used when recording session error logs.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrStorageIO):
		return "storage_io"
	case errors.Is(err, ErrFatalSession):
		return "fatal"
	default:
		return "transient"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
