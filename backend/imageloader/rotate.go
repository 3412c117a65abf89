package imageloader

import (
	"image"

	"github.com/disintegration/imaging"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// RotateActive rotates the active full-resolution raster by the given
// angle in degrees (90, -90 or 180, positive clockwise). The rotated
// raster overwrites both cache entries for the index and is published
// as ImageLoaded. This is the only path that mutates a cache entry in
// place instead of going through the decode pipeline.
func (s *DefaultImageStore) RotateActive(angle int) {
	index := int(s.activeIndex.Load())
	source := s.cachedFull(index)
	if source == nil {
		logger.Warn.Printf("Cannot rotate: full image %d not loaded", index)
		return
	}

	s.pool.Submit(func() {
		rotated := rotateRaster(source, angle)
		if rotated == nil {
			logger.Error.Printf("Unsupported rotation angle: %d", angle)
			return
		}

		s.fullMux.Lock()
		s.fulls[index] = rotated
		s.fullMux.Unlock()

		var thumbnail *apitype.Raster
		if resolution := int(s.bucketResolution.Load()); resolution > 0 {
			thumbnail = downsampleToBucket(rotated, resolution)
			s.thumbnailMux.Lock()
			s.thumbnails[index] = thumbnail
			s.thumbnailMux.Unlock()
		}

		if int(s.activeIndex.Load()) == index {
			s.sender.SendToTopicWithData(api.ImageLoaded, rotated)
			if thumbnail != nil {
				s.sender.SendToTopicWithData(api.ThumbnailLoaded, index, thumbnail)
			}
		}
	})
}

func rotateRaster(raster *apitype.Raster, angle int) *apitype.Raster {
	var rotated image.Image
	switch angle {
	case 90:
		// imaging rotates counter-clockwise.
		rotated = imaging.Rotate270(raster.ToImage())
	case -90, 270:
		rotated = imaging.Rotate90(raster.ToImage())
	case 180, -180:
		rotated = imaging.Rotate180(raster.ToImage())
	default:
		return nil
	}
	return apitype.RasterFromImage(rotated)
}
