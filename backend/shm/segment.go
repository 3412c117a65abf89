package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
	"vincit.fi/luminous/common/logger"
)

const shmDir = "/dev/shm"

// Segment is a named POSIX shared-memory segment used to move bulk
// pixel data between the host and plugin processes. A segment has a
// single owner at a time: the host creates it, hands the name to the
// plugin for exactly one request/response cycle and unlinks it after.
type Segment struct {
	name string
	file *os.File
	data []byte
}

// Create allocates a new segment of the given size with a unique name.
func Create(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid segment size %d", size)
	}
	name := "luminous-" + uuid.NewString()

	file, err := os.OpenFile(filepath.Join(shmDir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(size)); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, err
	}
	return mapSegment(name, file, size)
}

// Open maps an existing segment by name.
func Open(name string, size int) (*Segment, error) {
	file, err := os.OpenFile(filepath.Join(shmDir, name), os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return mapSegment(name, file, size)
}

func mapSegment(name string, file *os.File, size int) (*Segment, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Segment{
		name: name,
		file: file,
		data: data,
	}, nil
}

// Name is the identifier plugin processes use to open the segment.
func (s *Segment) Name() string {
	return s.name
}

func (s *Segment) Bytes() []byte {
	return s.data
}

func (s *Segment) Size() int {
	return len(s.data)
}

// Close unmaps and closes the segment without removing the backing
// name.
func (s *Segment) Close() error {
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			logger.Warn.Printf("Failed to unmap segment '%s': %s", s.name, err)
		}
		s.data = nil
	}
	return s.file.Close()
}

// Unlink removes the segment name. Safe to call after Close.
func (s *Segment) Unlink() error {
	return os.Remove(filepath.Join(shmDir, s.name))
}

// Release is the usual teardown: unmap, close and unlink in one call.
func (s *Segment) Release() {
	if err := s.Close(); err != nil {
		logger.Warn.Printf("Failed to close segment '%s': %s", s.name, err)
	}
	if err := s.Unlink(); err != nil && !os.IsNotExist(err) {
		logger.Warn.Printf("Failed to unlink segment '%s': %s", s.name, err)
	}
}
