package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vincit.fi/luminous/common/logger"
)

// Catalog is an immutable, index-addressed ordered sequence of image
// paths. Every cache in the loader keys on the catalog index.
type Catalog struct {
	paths      []string
	startIndex int
}

var builtinExtensions = map[string]bool{
	".bmp":  true,
	".gif":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Scan builds a catalog for the given path. A directory is walked
// recursively in sorted order; a single image file scans its parent
// directory and sets the start index to that file's position.
// extraExtensions come from registered plugins, without leading dot.
func Scan(root string, extraExtensions []string) (*Catalog, error) {
	supported := supportedExtensions(extraExtensions)

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	scanDir := root
	startFile := ""
	if !info.IsDir() {
		if !isSupported(root, supported) {
			logger.Error.Printf("File is not a supported image type: '%s'", root)
			return &Catalog{}, nil
		}
		startFile, err = filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		scanDir = filepath.Dir(root)
	}
	logger.Debug.Printf("Scanning directory '%s'", scanDir)

	catalog := &Catalog{}
	err = filepath.WalkDir(scanDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn.Printf("Skipping '%s': %s", path, err)
			return nil
		}
		if entry.IsDir() || !isSupported(path, supported) {
			return nil
		}
		if absPath, err := filepath.Abs(path); err == nil {
			if absPath == startFile {
				catalog.startIndex = len(catalog.paths)
				logger.Debug.Printf("Starting image set to index %d", catalog.startIndex)
			}
			catalog.paths = append(catalog.paths, absPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Found %d images, starting index %d", len(catalog.paths), catalog.startIndex)
	return catalog, nil
}

func supportedExtensions(extras []string) map[string]bool {
	supported := make(map[string]bool, len(builtinExtensions)+len(extras))
	for ext := range builtinExtensions {
		supported[ext] = true
	}
	for _, ext := range extras {
		supported["."+strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return supported
}

func isSupported(path string, supported map[string]bool) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

func (s *Catalog) Length() int {
	return len(s.paths)
}

func (s *Catalog) IsEmpty() bool {
	return len(s.paths) == 0
}

func (s *Catalog) StartIndex() int {
	return s.startIndex
}

// PathAt returns the path for the index, or false if the index is out
// of range.
func (s *Catalog) PathAt(index int) (string, bool) {
	if index < 0 || index >= len(s.paths) {
		return "", false
	}
	return s.paths[index], true
}

func (s *Catalog) FileName(index int) string {
	if path, ok := s.PathAt(index); ok {
		return filepath.Base(path)
	}
	return ""
}
