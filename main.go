package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/backend"
	"vincit.fi/luminous/common/config"
	"vincit.fi/luminous/common/event"
	"vincit.fi/luminous/common/logger"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "luminous [path]",
		Short:        "Luminous - image viewer and editor",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}

	flags := rootCmd.Flags()
	flags.StringP("log", "l", "", "Log level (error, warn, info, debug, trace)")
	flags.IntP("threads", "t", 0, "Number of worker threads (default: number of CPUs)")
	flags.Int("window-size", 0, "Full view preload radius")
	flags.StringVar(&configFile, "config-file", "", "Custom path to a config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	_ = v.BindPFlag("log", cmd.Flags().Lookup("log"))
	_ = v.BindPFlag("threads", cmd.Flags().Lookup("threads"))
	_ = v.BindPFlag("window_size", cmd.Flags().Lookup("window-size"))

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Path = args[0]
	}

	logger.Initialize(logger.StringToLogLevel(cfg.LogLevel))
	logger.Info.Printf("Starting luminous with path '%s'", cfg.Path)

	services, err := backend.InitializeServices(cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	if services.Catalog.IsEmpty() {
		logger.Error.Printf("No images found at path '%s'", cfg.Path)
		return errors.New("no images found")
	}

	// The main goroutine is the UI thread: the frontend hands its
	// event-loop injection to the dispatcher and attaches to the
	// broker topics. Until a frontend is wired in, the loop serves the
	// dispatched callbacks headlessly.
	mainLoop := make(chan func(), backend.DefaultMainQueueSize)
	dispatcher := event.NewGuiDispatcher(func(fn func()) {
		mainLoop <- fn
	})
	defer dispatcher.Stop()

	services.Broker.ConnectToGui(dispatcher, api.ThumbnailLoaded, func(index int, raster *apitype.Raster) {
		logger.Debug.Printf("Thumbnail ready: %d (%dx%d)", index, raster.Width(), raster.Height())
	})
	services.Broker.ConnectToGui(dispatcher, api.ImageLoaded, func(raster *apitype.Raster) {
		logger.Debug.Printf("Image ready (%dx%d)", raster.Width(), raster.Height())
	})

	store := services.ImageStore
	startIndex := services.Catalog.StartIndex()
	store.LoadFullProgressive(startIndex)
	store.UpdateSlidingWindow(startIndex, store.NeighborIndices(startIndex, cfg.WindowSize))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case fn := <-mainLoop:
			fn()
		case <-quit:
			logger.Info.Print("Shutting down")
			return nil
		}
	}
}
