package api

type Topic string

const (
	// ThumbnailLoaded carries (index int, raster *apitype.Raster) once per
	// completed thumbnail job.
	ThumbnailLoaded = Topic("thumbnail-loaded")
	// ImageLoaded carries (raster *apitype.Raster) once per completed,
	// non-stale full-resolution job.
	ImageLoaded = Topic("image-loaded")
)
