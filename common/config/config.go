package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
	"vincit.fi/luminous/common/logger"
)

// Config is the merged command line / config file configuration.
// Precedence: flag > config file > default.
type Config struct {
	// Path to an image file or a directory of images.
	Path string `mapstructure:"path"`
	// LogLevel is one of error, warn, info, debug, trace.
	LogLevel string `mapstructure:"log"`
	// Threads is the worker pool size.
	Threads int `mapstructure:"threads"`
	// WindowSize is the full-resolution preload radius.
	WindowSize int `mapstructure:"window_size"`
	// Background is the window background color, passed through to the
	// frontend.
	Background string `mapstructure:"background"`
	// Bindings maps actions to key names, passed through to the
	// frontend. User bindings override the defaults per action.
	Bindings map[string]string `mapstructure:"bindings"`
}

var knownKeys = map[string]bool{
	"path":        true,
	"log":         true,
	"threads":     true,
	"window_size": true,
	"background":  true,
	"bindings":    true,
}

// Load reads the TOML config file and merges it under any values
// already bound to the viper instance (command line flags). An empty
// configFile falls back to the default location; a missing file is not
// an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	v.SetDefault("path", ".")
	v.SetDefault("log", "warn")
	v.SetDefault("threads", runtime.NumCPU())
	v.SetDefault("window_size", 3)
	v.SetDefault("background", "#000000")

	if configFile == "" {
		configFile = defaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configFile); statErr == nil {
				return nil, err
			}
			logger.Debug.Printf("No config file at '%s'", configFile)
		}
	}

	for _, key := range v.AllKeys() {
		if !knownKeys[rootKey(key)] {
			logger.Warn.Printf("Unknown config key: '%s'", key)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.WindowSize < 0 {
		cfg.WindowSize = 0
	}

	bindings := DefaultBindings()
	for action, key := range cfg.Bindings {
		bindings[action] = key
	}
	cfg.Bindings = bindings

	return cfg, nil
}

func rootKey(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i]
		}
	}
	return key
}

func defaultConfigFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "luminous", "luminous.toml")
}

func DefaultBindings() map[string]string {
	return map[string]string{
		"quit":              "q",
		"toggle_fullscreen": "f",
		"switch_view_mode":  "Escape",
		"switch_mouse_mode": "m",
		"grid_page_down":    "PageDown",
		"grid_page_up":      "PageUp",
		"reset_zoom":        "z",
		"rotate_cw":         "r",
		"rotate_ccw":        "R",
	}
}
