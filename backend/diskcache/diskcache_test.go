package diskcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"vincit.fi/luminous/api/apitype"
)

func testRaster() *apitype.Raster {
	pix := make([]byte, 4*2*2)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = byte(0x10 * i)
		pix[i+3] = 0xFF
	}
	return apitype.NewRaster(2, 2, pix)
}

func TestCache_WriteReadRoundTrip(t *testing.T) {
	a := assert.New(t)

	cache := New(t.TempDir())
	a.NotNil(cache)

	sourceFile := filepath.Join(t.TempDir(), "a.png")
	a.NoError(os.WriteFile(sourceFile, []byte("x"), 0o644))

	key, err := cache.Key(sourceFile, 64)
	a.NoError(err)
	a.False(cache.Contains(key))

	raster := testRaster()
	a.NoError(cache.Write(key, raster))
	a.True(cache.Contains(key))

	cached, err := cache.Read(key)
	a.NoError(err)
	a.Equal(raster.Width(), cached.Width())
	a.Equal(raster.Height(), cached.Height())
	a.Equal(raster.Pix(), cached.Pix())
}

func TestCache_KeyIsStable(t *testing.T) {
	a := assert.New(t)

	cache := New(t.TempDir())
	sourceFile := filepath.Join(t.TempDir(), "a.png")
	a.NoError(os.WriteFile(sourceFile, []byte("x"), 0o644))

	first, err := cache.Key(sourceFile, 64)
	a.NoError(err)
	second, err := cache.Key(sourceFile, 64)
	a.NoError(err)
	a.Equal(first, second)
}

func TestCache_KeyVariesWithResolution(t *testing.T) {
	a := assert.New(t)

	cache := New(t.TempDir())
	sourceFile := filepath.Join(t.TempDir(), "a.png")
	a.NoError(os.WriteFile(sourceFile, []byte("x"), 0o644))

	lowRes, err := cache.Key(sourceFile, 64)
	a.NoError(err)
	highRes, err := cache.Key(sourceFile, 128)
	a.NoError(err)
	a.NotEqual(lowRes, highRes)
}

func TestCache_KeyVariesWithModTime(t *testing.T) {
	a := assert.New(t)

	cache := New(t.TempDir())
	sourceFile := filepath.Join(t.TempDir(), "a.png")
	a.NoError(os.WriteFile(sourceFile, []byte("x"), 0o644))

	before, err := cache.Key(sourceFile, 64)
	a.NoError(err)

	later := time.Now().Add(10 * time.Second)
	a.NoError(os.Chtimes(sourceFile, later, later))

	after, err := cache.Key(sourceFile, 64)
	a.NoError(err)
	a.NotEqual(before, after)
}

func TestCache_KeyMissingFile(t *testing.T) {
	a := assert.New(t)

	cache := New(t.TempDir())
	_, err := cache.Key(filepath.Join(t.TempDir(), "missing.png"), 64)
	a.Error(err)
}

func TestCache_NilIsDisabled(t *testing.T) {
	a := assert.New(t)

	var cache *Cache
	_, err := cache.Key("a.png", 64)
	a.Error(err)
	a.False(cache.Contains("key"))
	_, err = cache.Read("key")
	a.Error(err)
	a.Error(cache.Write("key", testRaster()))
}
