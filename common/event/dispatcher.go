package event

import (
	"sync/atomic"
	"vincit.fi/luminous/common/logger"
)

// GuiDispatcher forwards closures to the UI main loop through the run
// function given by the frontend. After Stop it silently drops every
// closure, so worker jobs finishing during teardown are harmless.
type GuiDispatcher struct {
	run     func(fn func())
	stopped atomic.Bool
}

func NewGuiDispatcher(run func(fn func())) *GuiDispatcher {
	return &GuiDispatcher{run: run}
}

func (s *GuiDispatcher) Dispatch(fn func()) {
	if s.stopped.Load() {
		logger.Trace.Print("Dispatcher stopped, dropping callback")
		return
	}
	s.run(fn)
}

func (s *GuiDispatcher) Stop() {
	s.stopped.Store(true)
}
