package imageloader

import (
	"time"

	"github.com/nfnt/resize"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// Thumbnails outside the visible range are kept within this margin of
// indices before being pruned.
const thumbnailPruneMargin = 30

// Thumbnail returns the cached thumbnail immediately, or nil after
// scheduling a background load. The job prefers the disk cache over a
// fresh decode and publishes ThumbnailLoaded when done.
func (s *DefaultImageStore) Thumbnail(index int) *apitype.Raster {
	resolution := int(s.bucketResolution.Load())
	if resolution == 0 {
		// No bucket resolution chosen yet; the grid has not laid
		// itself out.
		return apitype.NewPlaceholder()
	}

	if raster := s.cachedThumbnail(index); raster != nil {
		return raster
	}

	path, ok := s.catalog.PathAt(index)
	if !ok {
		return nil
	}

	s.pool.Submit(func() {
		startTime := time.Now()
		// Key stats the source file, so it belongs on the worker with
		// the rest of the disk work.
		key, keyErr := s.diskCache.Key(path, resolution)
		raster := s.loadThumbnail(path, resolution, key, keyErr == nil)
		logger.Debug.Printf("Thumb loaded (%d px): '%s' in %s",
			resolution, path, time.Since(startTime).String())

		s.thumbnailMux.Lock()
		s.thumbnails[index] = raster
		s.thumbnailMux.Unlock()

		s.sender.SendToTopicWithData(api.ThumbnailLoaded, index, raster)
	})
	return nil
}

func (s *DefaultImageStore) loadThumbnail(path string, resolution int, key string, hasKey bool) *apitype.Raster {
	if hasKey && s.diskCache.Contains(key) {
		if cached, err := s.diskCache.Read(key); err == nil {
			return cached
		} else {
			logger.Error.Printf("Cache failed to open (%d px) for '%s': %s", resolution, path, err)
			return apitype.NewPlaceholder()
		}
	}

	logger.Debug.Printf("Cache (%d px) not found for '%s'", resolution, path)
	box := apitype.SizeOf(resolution, resolution)
	source, ok := s.fetchBuffer(path, &box)
	if !ok {
		return apitype.NewPlaceholder()
	}

	raster := downsampleToBucket(source, resolution)
	if hasKey {
		// Best effort: a failed write only costs a re-decode later.
		if err := s.diskCache.Write(key, raster); err != nil {
			logger.Warn.Printf("Failed to save thumbnail cache for '%s': %s", path, err)
		}
	}
	return raster
}

// downsampleToBucket resamples to fit inside the bucket box preserving
// the aspect ratio. Sources already inside the box pass through.
func downsampleToBucket(raster *apitype.Raster, resolution int) *apitype.Raster {
	if raster.Width() <= resolution && raster.Height() <= resolution {
		return raster
	}
	width, height := apitype.ScaleToFit(raster.Width(), raster.Height(), resolution, resolution)
	resized := resize.Resize(uint(width), uint(height), raster.ToImage(), resize.Bilinear)
	return apitype.RasterFromImage(resized)
}

// PruneThumbnails retains only the entries within the visible grid
// range plus the margin. Called on every grid scroll.
func (s *DefaultImageStore) PruneThumbnails(start int, count int) {
	low := start - thumbnailPruneMargin
	high := start + count + thumbnailPruneMargin

	s.thumbnailMux.Lock()
	defer s.thumbnailMux.Unlock()
	for index := range s.thumbnails {
		if index < low || index > high {
			delete(s.thumbnails, index)
		}
	}
}

// SetBucketResolution changes the thumbnail target size and clears the
// in-memory thumbnail cache. Disk entries keyed by other resolutions
// stay valid and are simply looked up under the new key.
func (s *DefaultImageStore) SetBucketResolution(resolution int) {
	s.bucketResolution.Store(int32(resolution))
	s.thumbnailMux.Lock()
	defer s.thumbnailMux.Unlock()
	s.thumbnails = map[int]*apitype.Raster{}
}
