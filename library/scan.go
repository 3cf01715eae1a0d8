package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// MetadataDirName is the per-library working directory holding the cache
// document, posters and the run log. The walker never descends into it.
const MetadataDirName = ".metadata"

// Container formats with solid metadata support; everything else is
// ignored.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".m4v": true,
}

// FindMediaFiles walks root depth-first and returns every media file with a
// supported extension (matched case-insensitively), sorted by path so runs
// are deterministic across platforms.
func FindMediaFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == MetadataDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if videoExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
