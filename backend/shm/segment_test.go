package shm

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requireShm(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("shared memory segments require /dev/shm")
	}
	if _, err := os.Stat(shmDir); err != nil {
		t.Skip("no /dev/shm available")
	}
}

func TestSegment_CreateOpenRoundTrip(t *testing.T) {
	requireShm(t)
	a := assert.New(t)

	segment, err := Create(64)
	a.NoError(err)
	defer segment.Release()

	a.True(strings.HasPrefix(segment.Name(), "luminous-"))
	a.Equal(64, segment.Size())

	copy(segment.Bytes(), []byte("pixel payload"))

	// A second mapping of the same name sees the same bytes
	peer, err := Open(segment.Name(), 64)
	a.NoError(err)
	a.Equal([]byte("pixel payload"), peer.Bytes()[:13])

	peer.Bytes()[0] = 'P'
	a.Equal(byte('P'), segment.Bytes()[0])
	a.NoError(peer.Close())
}

func TestSegment_ReleaseUnlinks(t *testing.T) {
	requireShm(t)
	a := assert.New(t)

	segment, err := Create(16)
	a.NoError(err)

	path := filepath.Join(shmDir, segment.Name())
	_, err = os.Stat(path)
	a.NoError(err)

	segment.Release()
	_, err = os.Stat(path)
	a.True(os.IsNotExist(err))
}

func TestSegment_UniqueNames(t *testing.T) {
	requireShm(t)
	a := assert.New(t)

	first, err := Create(16)
	a.NoError(err)
	defer first.Release()
	second, err := Create(16)
	a.NoError(err)
	defer second.Release()

	a.NotEqual(first.Name(), second.Name())
}

func TestCreate_InvalidSize(t *testing.T) {
	a := assert.New(t)

	_, err := Create(0)
	a.Error(err)
	_, err = Create(-1)
	a.Error(err)
}

func TestOpen_MissingSegment(t *testing.T) {
	requireShm(t)
	a := assert.New(t)

	_, err := Open("luminous-does-not-exist", 16)
	a.Error(err)
}
