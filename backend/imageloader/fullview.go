package imageloader

import (
	"time"

	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// LoadFullProgressive returns the best raster available right now for
// the index: the cached full image, else its thumbnail, else the
// placeholder. A background decode is always scheduled; its result is
// committed and published only while no newer navigation has happened.
func (s *DefaultImageStore) LoadFullProgressive(index int) *apitype.Raster {
	jobGeneration := s.generation.Add(1)
	s.activeIndex.Store(int64(index))

	if raster := s.cachedFull(index); raster != nil {
		logger.Debug.Printf("Full cache hit: %d", index)
		return raster
	}

	backup := s.cachedThumbnail(index)
	if backup == nil {
		backup = apitype.NewPlaceholder()
	}

	if path, ok := s.catalog.PathAt(index); ok {
		s.pool.Submit(func() {
			if current := s.generation.Load(); current > jobGeneration {
				logger.Debug.Printf("Skipping obsolete job: %d (generation %d < current %d)",
					index, jobGeneration, current)
				return
			}

			startTime := time.Now()
			raster, _ := s.fetchBuffer(path, nil)
			logger.Debug.Printf("Full loaded: '%s' in %s", path, time.Since(startTime).String())

			// Re-check before commit: a navigation may have happened
			// while decoding.
			if current := s.generation.Load(); current > jobGeneration {
				logger.Debug.Printf("Discarding stale result: %d (generation %d < current %d)",
					index, jobGeneration, current)
				return
			}

			s.fullMux.Lock()
			s.fulls[index] = raster
			s.fullMux.Unlock()

			if int(s.activeIndex.Load()) == index {
				s.sender.SendToTopicWithData(api.ImageLoaded, raster)
			} else {
				logger.Debug.Printf("Obsolete job (index %d), not publishing (active index %d)",
					index, s.activeIndex.Load())
			}
		})
	}
	return backup
}

// NeighborIndices lists the wraparound neighbors within radius around
// center, nearest first, without duplicates.
func (s *DefaultImageStore) NeighborIndices(center int, radius int) []int {
	length := s.catalog.Length()
	if length <= 1 || radius <= 0 {
		return nil
	}

	seen := map[int]bool{center: true}
	var neighbors []int
	for offset := 1; offset <= radius; offset++ {
		next := apitype.WrapIndex(center, offset, length)
		previous := apitype.WrapIndex(center, -offset, length)
		for _, index := range []int{next, previous} {
			if !seen[index] {
				seen[index] = true
				neighbors = append(neighbors, index)
			}
		}
	}
	return neighbors
}

// UpdateSlidingWindow recenters the full-resolution residency window,
// preloads the uncached neighbors and evicts every full entry outside
// {center} plus the neighbors. Called after every navigation.
func (s *DefaultImageStore) UpdateSlidingWindow(center int, neighbors []int) {
	if s.catalog.IsEmpty() {
		return
	}

	s.windowMux.Lock()
	s.window = map[int]struct{}{center: {}}
	for _, index := range neighbors {
		s.window[index] = struct{}{}
	}
	active := make(map[int]struct{}, len(s.window))
	for index := range s.window {
		active[index] = struct{}{}
	}
	s.windowMux.Unlock()

	for _, index := range neighbors {
		s.preloadBackground(index)
	}

	s.fullMux.Lock()
	defer s.fullMux.Unlock()
	for index := range s.fulls {
		if _, ok := active[index]; !ok {
			delete(s.fulls, index)
			logger.Debug.Printf("Evicted full image: %d", index)
		}
	}
}

func (s *DefaultImageStore) inWindow(index int) bool {
	s.windowMux.Lock()
	defer s.windowMux.Unlock()
	_, ok := s.window[index]
	return ok
}

// preloadBackground warms a neighbor. Window membership and the cache
// are checked again at execution time: under rapid navigation the job
// may already be useless by the time a worker picks it up.
func (s *DefaultImageStore) preloadBackground(index int) {
	if s.cachedFull(index) != nil {
		return
	}
	path, ok := s.catalog.PathAt(index)
	if !ok {
		return
	}

	s.pool.Submit(func() {
		if !s.inWindow(index) {
			return
		}
		if s.cachedFull(index) != nil {
			return
		}

		raster, ok := s.fetchBuffer(path, nil)
		if !ok {
			return
		}
		s.fullMux.Lock()
		s.fulls[index] = raster
		s.fullMux.Unlock()
	})
}
