package imageloader

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/backend/catalog"
	"vincit.fi/luminous/backend/decoder"
	"vincit.fi/luminous/backend/diskcache"
	"vincit.fi/luminous/backend/worker"
)

func writePng(t *testing.T, path string, width int, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: byte(x * 8), G: byte(y * 8), A: 0xFF})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
}

// Full pipeline over real files: catalog scan, built-in decode, bucket
// downsample, disk cache write and publish.
func TestImageStore_EndToEnd(t *testing.T) {
	a := assert.New(t)

	imageDir := t.TempDir()
	for i := 0; i < 5; i++ {
		writePng(t, filepath.Join(imageDir, fmt.Sprintf("image-%02d.png", i)), 32, 32)
	}
	imageCatalog, err := catalog.Scan(imageDir, nil)
	a.NoError(err)
	a.Equal(5, imageCatalog.Length())

	pool := worker.NewPool(2)
	sender := &recordingSender{}
	store := NewImageStore(imageCatalog, pool, nil, decoder.NewDecoder(), diskcache.New(t.TempDir()), sender)
	store.SetBucketResolution(64)

	for index := 0; index < 3; index++ {
		a.Nil(store.Thumbnail(index))
	}
	pool.Close()

	events := sender.eventsFor(api.ThumbnailLoaded)
	a.Len(events, 3)
	for index := 0; index < 3; index++ {
		raster := store.cachedThumbnail(index)
		a.NotNil(raster)
		a.False(raster.IsPlaceholder())
		// Smaller than the bucket box, so no resample happened
		a.Equal(32, raster.Width())
		a.Equal(32, raster.Height())
	}
	a.Nil(store.cachedThumbnail(3))
	a.True(store.ByteSize() > 0)
}

func TestImageStore_DecodeFailureYieldsPlaceholder(t *testing.T) {
	a := assert.New(t)

	imageDir := t.TempDir()
	a.NoError(os.WriteFile(filepath.Join(imageDir, "broken.png"), []byte("not a png"), 0o644))
	imageCatalog, err := catalog.Scan(imageDir, nil)
	a.NoError(err)

	pool := worker.NewPool(1)
	sender := &recordingSender{}
	store := NewImageStore(imageCatalog, pool, nil, decoder.NewDecoder(), nil, sender)
	store.SetBucketResolution(64)

	store.Thumbnail(0)
	pool.Close()

	raster := store.cachedThumbnail(0)
	a.NotNil(raster)
	a.True(raster.IsPlaceholder())
	a.Len(sender.eventsFor(api.ThumbnailLoaded), 1)
}
