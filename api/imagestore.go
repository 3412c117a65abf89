package api

import (
	"vincit.fi/luminous/api/apitype"
)

// ImageStore is the loading and caching engine consumed by the UI
// controller. Lookups return immediately; decode work runs on the
// worker pool and completions are published as topics.
type ImageStore interface {
	// Thumbnail returns the cached thumbnail or nil after scheduling a
	// background load that publishes ThumbnailLoaded.
	Thumbnail(index int) *apitype.Raster
	// PruneThumbnails drops thumbnails outside the visible grid range
	// plus a fixed margin.
	PruneThumbnails(start int, count int)
	// SetBucketResolution changes the thumbnail target size and clears
	// the in-memory thumbnail cache.
	SetBucketResolution(resolution int)

	// LoadFullProgressive returns the best available raster for the
	// index (full, thumbnail or placeholder) and schedules a decode
	// that publishes ImageLoaded unless superseded.
	LoadFullProgressive(index int) *apitype.Raster
	// UpdateSlidingWindow recenters the full-resolution residency
	// window, preloads the neighbors and evicts everything else.
	UpdateSlidingWindow(center int, neighbors []int)
	// NeighborIndices lists the wraparound neighbors within radius
	// around center.
	NeighborIndices(center int, radius int) []int

	// RotateActive rotates the active image by the given angle in
	// degrees (+-90, 180) and overwrites both cache entries.
	RotateActive(angle int)
	// ActiveFull returns the cached full raster for the active index,
	// or nil.
	ActiveFull() *apitype.Raster

	ByteSize() uint64
	SizeInMB() float64
}
