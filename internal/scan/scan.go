// Package scan discovers candidate image files under a source directory and
// groups RAW files with their raster companions by shared base name.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"hotpix/internal/preview"
)

// File is one discovered candidate with its normalized format.
type File struct {
	Path   string
	Name   string
	Format string
	Size   int64
}

// Group is one unit of import work: a raster file, optionally carrying a RAW
// companion that shares its base name.
type Group struct {
	Raster *File
	Raw    *File
}

// Result partitions a discovery run. StandaloneRaw holds RAW files with no
// raster sibling; they are counted but never imported.
type Result struct {
	Groups        []Group
	StandaloneRaw []File
}

// TotalFiles returns the number of files the partition accounts for.
func (r *Result) TotalFiles() int {
	total := len(r.StandaloneRaw)
	for _, group := range r.Groups {
		total++
		if group.Raw != nil {
			total++
		}
	}
	return total
}

// Discover walks root and returns every raster or RAW file in deterministic
// lexicographic path order. Hidden files and directories are skipped unless
// includeHidden is set. Unrecognized extensions are ignored silently.
func Discover(root string, includeHidden bool) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !includeHidden && path != root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		format := preview.FormatForPath(path)
		if !preview.IsRasterFormat(format) && !preview.IsRawFormat(format) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		files = append(files, File{
			Path:   path,
			Name:   entry.Name(),
			Format: format,
			Size:   info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Partition groups discovered files into import units. A RAW file pairs with
// a raster file sharing the same directory and base name (case-insensitive);
// when several raster siblings share the base name, the lexicographically
// first one takes the companion and the rest import as plain rasters. RAW
// files with no raster sibling land in StandaloneRaw. Input order is
// preserved, so the partition is deterministic for a given file list.
func Partition(files []File) Result {
	rawByKey := make(map[groupKey]*File)
	rasterSeen := make(map[groupKey]bool)
	for i := range files {
		if preview.IsRawFormat(files[i].Format) {
			k := keyFor(files[i].Path)
			if _, exists := rawByKey[k]; !exists {
				rawByKey[k] = &files[i]
			}
		}
	}

	var result Result
	claimed := make(map[string]bool)
	for i := range files {
		if preview.IsRawFormat(files[i].Format) {
			continue
		}
		group := Group{Raster: &files[i]}
		k := keyFor(files[i].Path)
		if raw, ok := rawByKey[k]; ok && !rasterSeen[k] {
			group.Raw = raw
			claimed[raw.Path] = true
		}
		rasterSeen[k] = true
		result.Groups = append(result.Groups, group)
	}

	for i := range files {
		if preview.IsRawFormat(files[i].Format) && !claimed[files[i].Path] {
			result.StandaloneRaw = append(result.StandaloneRaw, files[i])
		}
	}
	return result
}

type groupKey struct {
	dir  string
	base string
}

func keyFor(path string) groupKey {
	name := filepath.Base(path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return groupKey{dir: filepath.Dir(path), base: strings.ToLower(base)}
}
