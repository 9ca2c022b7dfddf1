package photos

import (
	"strings"
	"time"
)

// SessionStatus represents the lifecycle of an import session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

var sessionStatuses = map[SessionStatus]struct{}{
	SessionInProgress: {},
	SessionCompleted:  {},
	SessionFailed:     {},
}

// ParseSessionStatus converts a string into a known SessionStatus.
func ParseSessionStatus(value string) (SessionStatus, bool) {
	normalized := SessionStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sessionStatuses[normalized]
	return normalized, ok
}

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// Visibility values accepted for Photo.Visibility.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Photo is the unit of visual identity: one row per distinct hothash, keyed
// forever by it. HotPreview carries the canonical preview inline (hot tier).
type Photo struct {
	Hothash        string
	HotPreview     []byte
	PerceptualHash string
	Width          int
	Height         int
	ExifSummary    string
	TakenAt        *time.Time
	GPSLatitude    *float64
	GPSLongitude   *float64
	Rating         int
	Tags           string
	Visibility     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImageFile is an immutable record of one physical file contributing to a
// Photo. Records are only ever inserted and cascade-deleted; there is no
// update path.
type ImageFile struct {
	ID              int64
	PhotoHothash    string
	Filename        string
	FilePath        string
	FileSize        int64
	FileFormat      string
	RawFilePath     string
	RawFileSize     int64
	RawFileFormat   string
	ImportSessionID string
	CreatedAt       time.Time
}

// HasRawCompanion reports whether a RAW sibling rode along with this file.
func (f *ImageFile) HasRawCompanion() bool {
	return f.RawFilePath != ""
}

// ImportSession tracks one batch run of the import pipeline. Counters only
// grow during a run; at completion their sum equals TotalFilesFound.
type ImportSession struct {
	ID                string
	SourcePath        string
	Status            SessionStatus
	TotalFilesFound   int64
	ImagesImported    int64
	DuplicatesSkipped int64
	RawFilesSkipped   int64
	SingleRawSkipped  int64
	ErrorsCount       int64
	ErrorLog          string
	FatalReason       string
	CancelRequested   bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// ProcessedTotal sums the per-file outcome counters.
func (s *ImportSession) ProcessedTotal() int64 {
	return s.ImagesImported + s.DuplicatesSkipped + s.RawFilesSkipped + s.SingleRawSkipped + s.ErrorsCount
}

// Counter names a session counter column that can be incremented atomically.
type Counter string

const (
	CounterTotalFilesFound   Counter = "total_files_found"
	CounterImagesImported    Counter = "images_imported"
	CounterDuplicatesSkipped Counter = "duplicates_skipped"
	CounterRawFilesSkipped   Counter = "raw_files_skipped"
	CounterSingleRawSkipped  Counter = "single_raw_skipped"
	CounterErrorsCount       Counter = "errors_count"
)

var validCounters = map[Counter]struct{}{
	CounterTotalFilesFound:   {},
	CounterImagesImported:    {},
	CounterDuplicatesSkipped: {},
	CounterRawFilesSkipped:   {},
	CounterSingleRawSkipped:  {},
	CounterErrorsCount:       {},
}
