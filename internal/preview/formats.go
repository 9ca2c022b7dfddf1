package preview

import (
	"path/filepath"
	"strings"
)

var rasterFormats = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"tiff": {},
	"tif":  {},
	"webp": {},
}

var rawFormats = map[string]struct{}{
	"cr2": {},
	"nef": {},
	"arw": {},
	"dng": {},
	"orf": {},
	"rw2": {},
	"raw": {},
}

// FormatForPath derives the normalized format token (lowercase, no dot) from
// a file path or bare extension.
func FormatForPath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = path
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsRasterFormat reports whether the normalized format is a decodable raster
// format.
func IsRasterFormat(format string) bool {
	_, ok := rasterFormats[format]
	return ok
}

// IsRawFormat reports whether the normalized format is a recognized camera
// RAW format.
func IsRawFormat(format string) bool {
	_, ok := rawFormats[format]
	return ok
}
