package worker

import (
	"sync"

	"vincit.fi/luminous/common/logger"
)

// Pool is a fixed set of worker goroutines draining a queue of
// fire-and-forget jobs. There is no ordering guarantee between queued
// jobs and no result channel: jobs communicate by mutating caches and
// publishing topics. Submit never blocks the caller, so it is safe
// from the UI thread.
type Pool struct {
	mux     sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	workers sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	pool := &Pool{}
	pool.cond = sync.NewCond(&pool.mux)

	logger.Debug.Printf("Starting %d workers", workers)
	pool.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.work()
	}
	return pool
}

// Submit queues a job. Jobs submitted after Close are dropped.
func (s *Pool) Submit(job func()) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		logger.Trace.Print("Pool closed, dropping job")
		return
	}
	s.queue = append(s.queue, job)
	s.cond.Signal()
}

func (s *Pool) work() {
	defer s.workers.Done()
	for {
		s.mux.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mux.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mux.Unlock()

		job()
	}
}

// Close stops intake, drains the remaining queue and waits for the
// workers to exit.
func (s *Pool) Close() {
	s.mux.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mux.Unlock()
	s.workers.Wait()
}
