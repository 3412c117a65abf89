package event

import (
	messagebus "github.com/vardius/message-bus"
	"reflect"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/common/logger"
)

// Broker routes load-completion topics from worker threads to
// subscribers. GUI subscriptions are re-dispatched onto the UI thread.
type Broker struct {
	bus messagebus.MessageBus

	api.Sender
}

func InitBus(queueSize int) *Broker {
	return &Broker{
		bus: messagebus.New(queueSize),
	}
}

func (s *Broker) Subscribe(topic api.Topic, fn interface{}) {
	err := s.bus.Subscribe(string(topic), fn)
	if err != nil {
		logger.Error.Panic("Could not subscribe")
	}
}

// ConnectToGui subscribes the callback so that it runs on the UI
// thread. The dispatcher drops the call if the UI is already gone.
func (s *Broker) ConnectToGui(dispatcher api.Dispatcher, topic api.Topic, callback interface{}) {
	cb := func(params ...interface{}) {
		sendFn := func() {
			args := make([]reflect.Value, 0, len(params))
			for _, param := range params {
				args = append(args, reflect.ValueOf(param))
			}
			logger.Trace.Printf("Calling topic '%s' callback", topic)
			reflect.ValueOf(callback).Call(args)
		}
		dispatcher.Dispatch(sendFn)
	}
	err := s.bus.Subscribe(string(topic), cb)
	if err != nil {
		logger.Error.Panic("Could not subscribe")
	}
}

func (s *Broker) SendToTopic(topic api.Topic) {
	logger.Trace.Printf("Sending to '%s'", topic)
	s.bus.Publish(string(topic))
}

func (s *Broker) SendToTopicWithData(topic api.Topic, data ...interface{}) {
	logger.Trace.Printf("Sending to '%s' with data", topic)
	s.bus.Publish(string(topic), data...)
}

func (s *Broker) Close() {
	s.bus.Close(string(api.ThumbnailLoaded))
	s.bus.Close(string(api.ImageLoaded))
}
