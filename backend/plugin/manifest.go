package plugin

import (
	"encoding/json"
	"fmt"
	"os"
)

type BackendKind string

const (
	BackendSharedLib  = BackendKind("shared_lib")
	BackendSubprocess = BackendKind("subprocess")
	BackendDaemon     = BackendKind("daemon")
)

type Capability string

const (
	CapabilityDecoder     = Capability("decoder")
	CapabilityEncoder     = Capability("encoder")
	CapabilityInteractive = Capability("interactive")
)

// Manifest is the plugin.json document describing one plugin: what it
// can do, which extensions it serves and how the host reaches it.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Backend      BackendKind  `json:"backend"`
	Extensions   []string     `json:"extensions"`
	Capabilities []Capability `json:"capabilities"`
	// DaemonPort is the TCP control port for daemon backends.
	DaemonPort int `json:"daemon_port,omitempty"`
	// Interpreter optionally runs the executable (e.g. "python3").
	Interpreter string `json:"interpreter,omitempty"`
	// Executable is the plugin program, relative to the plugin
	// directory unless absolute.
	Executable string `json:"executable,omitempty"`
}

func LoadManifest(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{}
	if err := json.Unmarshal(content, manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("manifest %s: missing name", path)
	}
	return manifest, nil
}

func (s *Manifest) HasCapability(capability Capability) bool {
	for _, c := range s.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
