package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

// ffiImage is the fixed-layout buffer descriptor of the in-process
// plugin ABI. The descriptor is owned by the plugin: the host copies
// the pixels out and then releases it with free_image exactly once.
type ffiImage struct {
	Data     uintptr
	Len      uintptr
	Width    uint32
	Height   uint32
	Channels uint8
}

const ffiChannels = 4

// sharedLibBackend calls a dynamic library exposing load_image,
// free_image and optionally save_image.
type sharedLibBackend struct {
	libPath   string
	loadImage func(path string) ffiImage
	freeImage func(img ffiImage)
	saveImage func(path string, img ffiImage) bool
}

func newSharedLibBackend(dir string) (*sharedLibBackend, error) {
	libPath, err := findLibrary(dir)
	if err != nil {
		return nil, err
	}

	lib, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", libPath, err)
	}

	// Resolve symbols by hand: RegisterLibFunc panics on a missing
	// symbol and a malformed plugin must fail registration, not the
	// session.
	loadAddr, err := purego.Dlsym(lib, "load_image")
	if err != nil {
		return nil, fmt.Errorf("library %s does not export load_image: %w", libPath, err)
	}
	freeAddr, err := purego.Dlsym(lib, "free_image")
	if err != nil {
		return nil, fmt.Errorf("library %s does not export free_image: %w", libPath, err)
	}

	backend := &sharedLibBackend{libPath: libPath}
	purego.RegisterFunc(&backend.loadImage, loadAddr)
	purego.RegisterFunc(&backend.freeImage, freeAddr)
	if addr, err := purego.Dlsym(lib, "save_image"); err == nil && addr != 0 {
		purego.RegisterFunc(&backend.saveImage, addr)
	}
	return backend, nil
}

func findLibrary(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), librarySuffix()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no library file found in %s", dir)
}

func librarySuffix() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

func (s *sharedLibBackend) decode(path string) (*apitype.Raster, error) {
	img := s.loadImage(path)
	if img.Data == 0 {
		return nil, fmt.Errorf("plugin returned no data for '%s'", path)
	}
	// Copy out before the free call; the descriptor is only valid in
	// between.
	src := unsafe.Slice((*byte)(unsafe.Pointer(img.Data)), int(img.Len))
	pix := make([]byte, len(src))
	copy(pix, src)
	channels := img.Channels
	width := int(img.Width)
	height := int(img.Height)
	s.freeImage(img)

	if channels != ffiChannels {
		return nil, fmt.Errorf("plugin returned %d channels, expected %d", channels, ffiChannels)
	}
	return apitype.NewRaster(width, height, pix), nil
}

func (s *sharedLibBackend) encode(path string, raster *apitype.Raster) error {
	if s.saveImage == nil {
		return ErrNotSupported
	}
	pix := raster.Pix()
	if len(pix) == 0 {
		return fmt.Errorf("empty raster")
	}
	img := ffiImage{
		Data:     uintptr(unsafe.Pointer(&pix[0])),
		Len:      uintptr(len(pix)),
		Width:    uint32(raster.Width()),
		Height:   uint32(raster.Height()),
		Channels: ffiChannels,
	}
	ok := s.saveImage(path, img)
	runtime.KeepAlive(raster)
	if !ok {
		return fmt.Errorf("plugin failed to encode '%s'", path)
	}
	return nil
}

func (s *sharedLibBackend) close() error {
	logger.Trace.Printf("Closing library backend '%s'", s.libPath)
	return nil
}
