package backend

import (
	"os"
	"path/filepath"

	"vincit.fi/luminous/api"
	"vincit.fi/luminous/backend/catalog"
	"vincit.fi/luminous/backend/decoder"
	"vincit.fi/luminous/backend/diskcache"
	"vincit.fi/luminous/backend/imageloader"
	"vincit.fi/luminous/backend/plugin"
	"vincit.fi/luminous/backend/worker"
	"vincit.fi/luminous/common/config"
	"vincit.fi/luminous/common/event"
	"vincit.fi/luminous/common/logger"
)

const (
	eventBusQueueSize = 100
	// DefaultMainQueueSize bounds the UI-thread callback queue.
	DefaultMainQueueSize = 100
)

// Services bundles the backend components in their dependency order.
// The frontend consumes ImageStore, Broker and Plugins; everything
// else is wiring.
type Services struct {
	Catalog    *catalog.Catalog
	Pool       *worker.Pool
	Plugins    *plugin.Manager
	Broker     *event.Broker
	ImageStore api.ImageStore
}

func InitializeServices(cfg *config.Config) (*Services, error) {
	logger.Debug.Print("Initialize services...")

	plugins := plugin.NewManager()
	plugins.Discover(DefaultPluginsDir())

	imageCatalog, err := catalog.Scan(cfg.Path, plugins.SupportedExtensions())
	if err != nil {
		plugins.Close()
		return nil, err
	}

	pool := worker.NewPool(cfg.Threads)
	broker := event.InitBus(eventBusQueueSize)
	imageStore := imageloader.NewImageStore(
		imageCatalog,
		pool,
		plugins,
		decoder.NewDecoder(),
		diskcache.New(diskcache.DefaultDir()),
		broker,
	)

	logger.Debug.Print("Services initialized")
	return &Services{
		Catalog:    imageCatalog,
		Pool:       pool,
		Plugins:    plugins,
		Broker:     broker,
		ImageStore: imageStore,
	}, nil
}

// Close tears down in reverse order: stop accepting work, then the
// plugin processes, then the broker.
func (s *Services) Close() {
	s.Pool.Close()
	s.Plugins.Close()
	s.Broker.Close()
}

// DefaultPluginsDir is the per-user plugin directory, one subdirectory
// with a plugin.json per plugin.
func DefaultPluginsDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "luminous", "plugins")
}
