package plugin

import (
	"errors"

	"vincit.fi/luminous/api/apitype"
)

// HostVersion gates plugin registration: a plugin whose manifest
// version differs is skipped for the session.
const HostVersion = "1.0.0"

var ErrNotSupported = errors.New("operation not supported by plugin")

// backend is the closed set of transport variants behind a plugin.
// Callers never see which variant served a given extension.
type backend interface {
	decode(path string) (*apitype.Raster, error)
	encode(path string, raster *apitype.Raster) error
	close() error
}

// interactiveBackend is implemented by backends that hold a session
// image and answer point queries (daemon only).
type interactiveBackend interface {
	setImage(raster *apitype.Raster) error
	click(x int, y int) (*apitype.Raster, error)
}

// Plugin is the capability-checked facade over one backend.
type Plugin struct {
	manifest *Manifest
	backend  backend
}

func (s *Plugin) Name() string {
	return s.manifest.Name
}

func (s *Plugin) Manifest() *Manifest {
	return s.manifest
}

func (s *Plugin) Decode(path string) (*apitype.Raster, error) {
	if !s.manifest.HasCapability(CapabilityDecoder) {
		return nil, ErrNotSupported
	}
	return s.backend.decode(path)
}

func (s *Plugin) Encode(path string, raster *apitype.Raster) error {
	if !s.manifest.HasCapability(CapabilityEncoder) {
		return ErrNotSupported
	}
	return s.backend.encode(path, raster)
}

// SetInteractiveImage hands the raster to an interactive plugin as the
// session image for subsequent clicks.
func (s *Plugin) SetInteractiveImage(raster *apitype.Raster) error {
	interactive, ok := s.interactive()
	if !ok {
		return ErrNotSupported
	}
	return interactive.setImage(raster)
}

// InteractiveClick sends a point on the session image and returns the
// resulting overlay raster.
func (s *Plugin) InteractiveClick(x int, y int) (*apitype.Raster, error) {
	interactive, ok := s.interactive()
	if !ok {
		return nil, ErrNotSupported
	}
	return interactive.click(x, y)
}

func (s *Plugin) interactive() (interactiveBackend, bool) {
	if !s.manifest.HasCapability(CapabilityInteractive) {
		return nil, false
	}
	interactive, ok := s.backend.(interactiveBackend)
	return interactive, ok
}

func (s *Plugin) Close() error {
	return s.backend.close()
}
