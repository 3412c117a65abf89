package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	a := assert.New(t)

	broker := InitBus(10)

	var mux sync.Mutex
	var received []int
	broker.Subscribe(api.ThumbnailLoaded, func(index int, raster *apitype.Raster) {
		mux.Lock()
		defer mux.Unlock()
		received = append(received, index)
	})

	raster := apitype.NewPlaceholder()
	broker.SendToTopicWithData(api.ThumbnailLoaded, 3, raster)
	broker.SendToTopicWithData(api.ThumbnailLoaded, 7, raster)

	a.Eventually(func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	mux.Lock()
	a.ElementsMatch([]int{3, 7}, received)
	mux.Unlock()
	broker.Close()
}

func TestBroker_ConnectToGuiRunsOnDispatcher(t *testing.T) {
	a := assert.New(t)

	broker := InitBus(10)

	// Fake UI loop: runs dispatched closures on a dedicated goroutine
	mainLoop := make(chan func(), 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for fn := range mainLoop {
			fn()
		}
	}()
	dispatcher := NewGuiDispatcher(func(fn func()) {
		mainLoop <- fn
	})

	var mux sync.Mutex
	var received []*apitype.Raster
	broker.ConnectToGui(dispatcher, api.ImageLoaded, func(raster *apitype.Raster) {
		mux.Lock()
		defer mux.Unlock()
		received = append(received, raster)
	})

	raster := apitype.NewRaster(2, 2, make([]byte, 16))
	broker.SendToTopicWithData(api.ImageLoaded, raster)

	a.Eventually(func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mux.Lock()
	a.Equal(raster, received[0])
	mux.Unlock()

	close(mainLoop)
	<-done
	broker.Close()
}

func TestGuiDispatcher_StopDropsCallbacks(t *testing.T) {
	a := assert.New(t)

	var calls int
	dispatcher := NewGuiDispatcher(func(fn func()) {
		calls++
		fn()
	})

	dispatcher.Dispatch(func() {})
	a.Equal(1, calls)

	dispatcher.Stop()
	dispatcher.Dispatch(func() {})
	a.Equal(1, calls)
}
