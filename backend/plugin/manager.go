package plugin

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// Manager discovers plugins and routes decode/encode requests by file
// extension. Registration happens once at startup; lookups afterwards
// are read-only.
type Manager struct {
	mux         sync.Mutex
	byExtension map[string]*Plugin
	plugins     []*Plugin
}

func NewManager() *Manager {
	return &Manager{
		byExtension: map[string]*Plugin{},
	}
}

// Discover scans every subdirectory of pluginsDir for a plugin.json
// manifest and registers the plugins that pass the version and
// resource checks. Failures exclude the plugin for the session and are
// never fatal.
func (s *Manager) Discover(pluginsDir string) {
	logger.Info.Printf("Discovering plugins in '%s'", pluginsDir)
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		logger.Debug.Printf("No plugins directory: %s", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(pluginsDir, entry.Name())
		manifestPath := filepath.Join(dir, "plugin.json")
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			logger.Error.Printf("Skipping plugin dir '%s': %s", dir, err)
			continue
		}
		s.Register(dir, manifest)
	}
}

// Register builds the backend for the manifest and indexes the plugin.
func (s *Manager) Register(dir string, manifest *Manifest) {
	if manifest.Version != HostVersion {
		logger.Error.Printf("Skipping plugin %s: version mismatch (found %s, expected %s)",
			manifest.Name, manifest.Version, HostVersion)
		return
	}

	var pluginBackend backend
	var err error
	switch manifest.Backend {
	case BackendSharedLib:
		pluginBackend, err = newSharedLibBackend(dir)
	case BackendSubprocess:
		pluginBackend, err = newSubprocessBackend(dir, manifest)
	case BackendDaemon:
		pluginBackend, err = newDaemonBackend(dir, manifest)
	default:
		logger.Error.Printf("Skipping plugin %s: unknown backend '%s'", manifest.Name, manifest.Backend)
		return
	}
	if err != nil {
		logger.Error.Printf("Skipping plugin %s: %s", manifest.Name, err)
		return
	}

	plugin := &Plugin{
		manifest: manifest,
		backend:  pluginBackend,
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.plugins = append(s.plugins, plugin)
	for _, capability := range manifest.Capabilities {
		switch capability {
		case CapabilityDecoder, CapabilityEncoder:
			for _, ext := range manifest.Extensions {
				s.byExtension[normalizeExtension(ext)] = plugin
				logger.Debug.Printf("Plugin %s handles '%s'", manifest.Name, ext)
			}
		case CapabilityInteractive:
			logger.Debug.Printf("Plugin %s registered as interactive", manifest.Name)
		default:
			logger.Error.Printf("Unknown capability in %s: '%s'", manifest.Name, capability)
		}
	}
	logger.Info.Printf("Registered plugin %s (%s)", manifest.Name, manifest.Backend)
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SupportedExtensions lists the extensions served by registered
// plugins, for the catalog's extension filter.
func (s *Manager) SupportedExtensions() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	extensions := make([]string, 0, len(s.byExtension))
	for ext := range s.byExtension {
		extensions = append(extensions, ext)
	}
	return extensions
}

// PluginFor returns the plugin registered for the path's extension.
func (s *Manager) PluginFor(path string) *Plugin {
	ext := normalizeExtension(filepath.Ext(path))
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.byExtension[ext]
}

// Decode decodes through the extension's plugin. The second return is
// false when no plugin serves the extension or the plugin failed, in
// which case the caller falls back to the built-in decoder.
func (s *Manager) Decode(path string) (*apitype.Raster, bool) {
	plugin := s.PluginFor(path)
	if plugin == nil {
		return nil, false
	}
	logger.Debug.Printf("Using plugin '%s' for '%s'", plugin.Name(), path)
	raster, err := plugin.Decode(path)
	if err != nil {
		logger.Error.Printf("Plugin %s failed to decode '%s': %s", plugin.Name(), path, err)
		return nil, false
	}
	return raster, true
}

// Interactive returns the first registered interactive plugin, or nil.
func (s *Manager) Interactive() *Plugin {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, plugin := range s.plugins {
		if plugin.manifest.HasCapability(CapabilityInteractive) {
			return plugin
		}
	}
	return nil
}

// Close tears down every backend, killing and waiting on daemon
// processes.
func (s *Manager) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, plugin := range s.plugins {
		if err := plugin.Close(); err != nil {
			logger.Warn.Printf("Error closing plugin %s: %s", plugin.Name(), err)
		}
	}
	s.plugins = nil
	s.byExtension = map[string]*Plugin{}
}
