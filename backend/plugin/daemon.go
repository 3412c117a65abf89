package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/backend/shm"
	"vincit.fi/luminous/common/logger"
)

const (
	daemonConnectAttempts = 20
	daemonConnectBackoff  = 500 * time.Millisecond
	daemonAckLength       = 2
	daemonAckOk           = "OK"
)

// Control messages are newline-delimited JSON; bulk pixels never touch
// the socket, they move through named shared-memory segments.
type setImageRequest struct {
	Action  string `json:"action"`
	ShmName string `json:"shm_name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type clickRequest struct {
	Action  string `json:"action"`
	ShmName string `json:"shm_name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// daemonBackend supervises a long-lived plugin process and talks to it
// over a TCP control connection. It keeps one session image at a time
// for interactive point queries.
type daemonBackend struct {
	cmd  *exec.Cmd
	conn net.Conn
	mux  sync.Mutex

	imageWidth  int
	imageHeight int
}

func newDaemonBackend(dir string, manifest *Manifest) (*daemonBackend, error) {
	if manifest.DaemonPort <= 0 {
		return nil, fmt.Errorf("daemon plugin without daemon_port")
	}
	if manifest.Executable == "" {
		return nil, fmt.Errorf("daemon plugin without executable")
	}
	executable := manifest.Executable
	if !filepath.IsAbs(executable) {
		executable = filepath.Join(dir, executable)
	}
	if _, err := os.Stat(executable); err != nil {
		return nil, fmt.Errorf("plugin executable not found: %w", err)
	}

	var cmd *exec.Cmd
	if manifest.Interpreter != "" {
		cmd = exec.Command(manifest.Interpreter, executable)
	} else {
		cmd = exec.Command(executable)
	}
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start daemon: %w", err)
	}

	conn, err := connectWithRetry(fmt.Sprintf("127.0.0.1:%d", manifest.DaemonPort))
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	return &daemonBackend{
		cmd:  cmd,
		conn: conn,
	}, nil
}

func connectWithRetry(address string) (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < daemonConnectAttempts; attempt++ {
		start := time.Now()
		conn, err := net.DialTimeout("tcp", address, daemonConnectBackoff)
		if err == nil {
			logger.Debug.Printf("Connected to daemon at %s", address)
			return conn, nil
		}
		lastErr = err
		// Pace each attempt to the backoff interval: a refused dial
		// fails instantly, a timed-out one has already spent it.
		if wait := daemonConnectBackoff - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("daemon unreachable at %s: %w", address, lastErr)
}

// request sends one control message and waits for the fixed 2-byte
// acknowledgment. Caller holds the mutex.
func (s *daemonBackend) request(message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("daemon write failed: %w", err)
	}

	ack := make([]byte, daemonAckLength)
	if _, err := io.ReadFull(s.conn, ack); err != nil {
		return fmt.Errorf("daemon ack failed: %w", err)
	}
	if string(ack) != daemonAckOk {
		return fmt.Errorf("daemon refused request: '%s'", ack)
	}
	return nil
}

// setImage copies the raster into a fresh segment and hands its name
// to the daemon as the session image.
func (s *daemonBackend) setImage(raster *apitype.Raster) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	segment, err := shm.Create(raster.ByteLength())
	if err != nil {
		return err
	}
	defer segment.Release()
	copy(segment.Bytes(), raster.Pix())

	err = s.request(&setImageRequest{
		Action:  "set_image",
		ShmName: segment.Name(),
		Width:   raster.Width(),
		Height:  raster.Height(),
	})
	if err != nil {
		return err
	}
	s.imageWidth = raster.Width()
	s.imageHeight = raster.Height()
	return nil
}

// click sends a point on the session image. The daemon writes a
// single-channel mask into the segment, which is expanded into an RGBA
// overlay: opaque red where the mask is set, transparent elsewhere.
func (s *daemonBackend) click(x int, y int) (*apitype.Raster, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.imageWidth == 0 || s.imageHeight == 0 {
		return nil, fmt.Errorf("no session image set")
	}

	segment, err := shm.Create(s.imageWidth * s.imageHeight)
	if err != nil {
		return nil, err
	}
	defer segment.Release()

	err = s.request(&clickRequest{
		Action:  "click",
		ShmName: segment.Name(),
		X:       x,
		Y:       y,
	})
	if err != nil {
		return nil, err
	}
	return maskToOverlay(segment.Bytes(), s.imageWidth, s.imageHeight), nil
}

func maskToOverlay(mask []byte, width int, height int) *apitype.Raster {
	pix := make([]byte, width*height*4)
	for i, value := range mask {
		if value > 0 {
			pix[i*4] = 0xFF
			pix[i*4+3] = 0xFF
		}
	}
	return apitype.NewRaster(width, height, pix)
}

func (s *daemonBackend) decode(path string) (*apitype.Raster, error) {
	// The control protocol carries no path, daemons are interactive
	// only.
	return nil, ErrNotSupported
}

func (s *daemonBackend) encode(path string, raster *apitype.Raster) error {
	return ErrNotSupported
}

// close kills the supervised process and waits for it regardless of
// connection state.
func (s *daemonBackend) close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		return s.cmd.Wait()
	}
	return nil
}
