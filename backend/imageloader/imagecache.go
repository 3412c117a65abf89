package imageloader

import (
	"sync"
	"sync/atomic"

	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/backend/catalog"
	"vincit.fi/luminous/backend/diskcache"
	"vincit.fi/luminous/backend/worker"
	"vincit.fi/luminous/common/logger"
)

// PluginDecoder routes a decode to an out-of-process plugin. The
// second return is false when no plugin serves the path, in which case
// the built-in decoder is used.
type PluginDecoder interface {
	Decode(path string) (*apitype.Raster, bool)
}

// DefaultImageStore is the loading and caching engine: an index-keyed
// thumbnail cache pruned to the visible grid range, and an index-keyed
// full-resolution cache evicted to a sliding window around the active
// image. Lookups return immediately; decoding runs on the worker pool
// and completions are published to the broker topics.
//
// Locks cover only the map accesses, never an I/O operation. The hot
// counters (generation, active index, bucket resolution) are atomics.
type DefaultImageStore struct {
	catalog   *catalog.Catalog
	pool      *worker.Pool
	plugins   PluginDecoder
	decoder   api.ImageDecoder
	diskCache *diskcache.Cache
	sender    api.Sender

	thumbnails   map[int]*apitype.Raster
	thumbnailMux sync.Mutex
	fulls        map[int]*apitype.Raster
	fullMux      sync.Mutex
	window       map[int]struct{}
	windowMux    sync.Mutex

	generation       atomic.Uint64
	activeIndex      atomic.Int64
	bucketResolution atomic.Int32

	api.ImageStore
}

func NewImageStore(
	imageCatalog *catalog.Catalog,
	pool *worker.Pool,
	plugins PluginDecoder,
	decoder api.ImageDecoder,
	diskCache *diskcache.Cache,
	sender api.Sender,
) *DefaultImageStore {
	logger.Debug.Print("Initialize image store...")
	return &DefaultImageStore{
		catalog:    imageCatalog,
		pool:       pool,
		plugins:    plugins,
		decoder:    decoder,
		diskCache:  diskCache,
		sender:     sender,
		thumbnails: map[int]*apitype.Raster{},
		fulls:      map[int]*apitype.Raster{},
		window:     map[int]struct{}{},
	}
}

// fetchBuffer decodes the path into a raster, preferring a plugin over
// the built-in decoder. The second return is false when decoding
// failed and the placeholder was substituted.
func (s *DefaultImageStore) fetchBuffer(path string, size *apitype.Size) (*apitype.Raster, bool) {
	if s.plugins != nil {
		if raster, ok := s.plugins.Decode(path); ok {
			return raster, true
		}
	}

	var raster *apitype.Raster
	var err error
	if size != nil {
		raster, err = s.decoder.DecodeScaled(path, *size)
	} else {
		raster, err = s.decoder.Decode(path)
	}
	if err != nil {
		logger.Error.Printf("Image load failed for '%s': %s", path, err)
		return apitype.NewPlaceholder(), false
	}
	return raster, true
}

func (s *DefaultImageStore) cachedThumbnail(index int) *apitype.Raster {
	s.thumbnailMux.Lock()
	defer s.thumbnailMux.Unlock()
	return s.thumbnails[index]
}

func (s *DefaultImageStore) cachedFull(index int) *apitype.Raster {
	s.fullMux.Lock()
	defer s.fullMux.Unlock()
	return s.fulls[index]
}

// ActiveFull returns the cached full raster of the active index, or
// nil when it has not finished loading.
func (s *DefaultImageStore) ActiveFull() *apitype.Raster {
	index := int(s.activeIndex.Load())
	if raster := s.cachedFull(index); raster != nil {
		return raster
	}
	logger.Error.Printf("Current image not loaded (index %d)", index)
	return nil
}

// ByteSize approximates the resident memory of both caches.
func (s *DefaultImageStore) ByteSize() (byteSize uint64) {
	s.thumbnailMux.Lock()
	for _, raster := range s.thumbnails {
		byteSize += uint64(raster.ByteLength())
	}
	s.thumbnailMux.Unlock()

	s.fullMux.Lock()
	for _, raster := range s.fulls {
		byteSize += uint64(raster.ByteLength())
	}
	s.fullMux.Unlock()
	return
}

func (s *DefaultImageStore) SizeInMB() float64 {
	return float64(s.ByteSize()) / (1024 * 1024)
}
