package plugin

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/backend/shm"
	"vincit.fi/luminous/common/logger"
)

// handshake is the single JSON line a one-shot plugin writes to its
// stdout before pixels move through shared memory.
type handshake struct {
	Status        string `json:"status"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RequiredBytes int    `json:"required_bytes"`
	Error         string `json:"error,omitempty"`
}

func parseHandshake(line string) (*handshake, error) {
	reply := &handshake{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), reply); err != nil {
		return nil, fmt.Errorf("invalid handshake line: %w", err)
	}
	if reply.Status != "ready" && reply.Status != "ok" {
		if reply.Error != "" {
			return nil, fmt.Errorf("plugin reported: %s", reply.Error)
		}
		return nil, fmt.Errorf("plugin status '%s'", reply.Status)
	}
	if reply.RequiredBytes <= 0 || reply.RequiredBytes != reply.Width*reply.Height*4 {
		return nil, fmt.Errorf("handshake size mismatch: %dx%d vs %d bytes",
			reply.Width, reply.Height, reply.RequiredBytes)
	}
	return reply, nil
}

// subprocessBackend spawns a fresh plugin process per request and
// exchanges pixels through a shared-memory segment the host owns for
// the duration of the request.
type subprocessBackend struct {
	interpreter string
	executable  string
}

func newSubprocessBackend(dir string, manifest *Manifest) (*subprocessBackend, error) {
	if manifest.Executable == "" {
		return nil, fmt.Errorf("subprocess plugin without executable")
	}
	executable := manifest.Executable
	if !filepath.IsAbs(executable) {
		executable = filepath.Join(dir, executable)
	}
	if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("plugin executable not found: %w", err)
	}
	if manifest.Interpreter != "" {
		if _, err := exec.LookPath(manifest.Interpreter); err != nil {
			return nil, fmt.Errorf("plugin interpreter not found: %w", err)
		}
	}
	return &subprocessBackend{
		interpreter: manifest.Interpreter,
		executable:  executable,
	}, nil
}

func (s *subprocessBackend) command(args ...string) *exec.Cmd {
	if s.interpreter != "" {
		return exec.Command(s.interpreter, append([]string{s.executable}, args...)...)
	}
	return exec.Command(s.executable, args...)
}

func (s *subprocessBackend) decode(path string) (*apitype.Raster, error) {
	cmd := s.command("decode", path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	line, err := bufio.NewReader(stdout).ReadString('\n')
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("plugin handshake failed: %w", err)
	}
	reply, err := parseHandshake(line)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	segment, err := shm.Create(reply.RequiredBytes)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	defer segment.Release()

	if _, err := fmt.Fprintln(stdin, segment.Name()); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("plugin exited with error: %w", err)
	}

	// The segment is unlinked on return, copy the pixels out.
	pix := make([]byte, reply.RequiredBytes)
	copy(pix, segment.Bytes())
	logger.Trace.Printf("Subprocess decoded '%s' (%dx%d)", path, reply.Width, reply.Height)
	return apitype.NewRaster(reply.Width, reply.Height, pix), nil
}

func (s *subprocessBackend) encode(path string, raster *apitype.Raster) error {
	segment, err := shm.Create(raster.ByteLength())
	if err != nil {
		return err
	}
	defer segment.Release()
	copy(segment.Bytes(), raster.Pix())

	cmd := s.command("encode", path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	meta, err := json.Marshal(&handshake{
		Status:        "ready",
		Width:         raster.Width(),
		Height:        raster.Height(),
		RequiredBytes: raster.ByteLength(),
	})
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return err
	}
	if _, err := fmt.Fprintf(stdin, "%s\n%s\n", meta, segment.Name()); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return err
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("plugin exited with error: %w", err)
	}
	return nil
}

func (s *subprocessBackend) close() error {
	return nil
}
