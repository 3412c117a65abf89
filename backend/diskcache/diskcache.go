package diskcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/natefinch/atomic"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// Cache is the on-disk thumbnail cache. Entries are PNG files named by
// a fingerprint of the source path and its modification time plus the
// requested resolution, so a changed file or a new resolution misses
// naturally and no invalidation pass exists. A nil *Cache is a valid,
// disabled cache.
type Cache struct {
	dir string
}

// New creates the cache directory and returns the cache, or nil when
// the directory cannot be created (disk caching disabled, memory-only
// operation continues).
func New(dir string) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn.Printf("Failed to create cache directory '%s': %s", dir, err)
		return nil
	}
	logger.Debug.Printf("Thumbnail disk cache at '%s'", dir)
	return &Cache{dir: dir}
}

// DefaultDir is the per-user thumbnail cache location.
func DefaultDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheDir, "luminous", "thumbnails")
}

// Key fingerprints (absolute path, mtime seconds) and the resolution
// into the cache file name.
func (s *Cache) Key(path string, resolution int) (string, error) {
	if s == nil {
		return "", os.ErrInvalid
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	hasher.Write([]byte(absPath))
	var modified [8]byte
	binary.BigEndian.PutUint64(modified[:], uint64(info.ModTime().Unix()))
	hasher.Write(modified[:])

	return fmt.Sprintf("%s_%d.png", hex.EncodeToString(hasher.Sum(nil)), resolution), nil
}

// Read decodes the cached thumbnail, or returns an error on miss.
func (s *Cache) Read(key string) (*apitype.Raster, error) {
	if s == nil {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, err
	}
	return apitype.RasterFromImage(img), nil
}

func (s *Cache) Contains(key string) bool {
	if s == nil {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	return err == nil
}

// Write stores the thumbnail. Writes are best effort: the caller logs
// and carries on with the in-memory result when this fails.
func (s *Cache) Write(key string, raster *apitype.Raster) error {
	if s == nil {
		return os.ErrInvalid
	}
	var buffer bytes.Buffer
	if err := imaging.Encode(&buffer, raster.ToImage(), imaging.PNG); err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(s.dir, key), &buffer)
}
