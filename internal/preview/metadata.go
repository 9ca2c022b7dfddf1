package preview

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata describes the oriented original image. All EXIF-derived fields
// are best-effort; absent metadata leaves them zero.
type Metadata struct {
	Width   int
	Height  int
	Summary string
	TakenAt *time.Time
	// GPS coordinates in decimal degrees.
	Latitude  *float64
	Longitude *float64
}

// extractMetadata pulls a compact EXIF summary, capture time, and GPS
// position from the source bytes. Dimensions are filled in by the caller
// from the decoded image.
func extractMetadata(data []byte) *Metadata {
	meta := &Metadata{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	meta.Summary = cameraSummary(x)
	if taken, err := x.DateTime(); err == nil {
		utc := taken.UTC()
		meta.TakenAt = &utc
	}
	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}
	return meta
}

func cameraSummary(x *exif.Exif) string {
	parts := make([]string, 0, 2)
	for _, field := range []exif.FieldName{exif.Make, exif.Model} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}
