package decoder

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"vincit.fi/luminous/api/apitype"
)

func writeTestPng(t *testing.T, width int, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode_Png(t *testing.T) {
	a := assert.New(t)

	decoder := NewDecoder()
	raster, err := decoder.Decode(writeTestPng(t, 8, 6))
	a.NoError(err)
	a.Equal(8, raster.Width())
	a.Equal(6, raster.Height())
	a.Equal(byte(0xFF), raster.Pix()[0])
}

func TestDecodeScaled_NonJpegDecodesFullSize(t *testing.T) {
	a := assert.New(t)

	decoder := NewDecoder()
	raster, err := decoder.DecodeScaled(writeTestPng(t, 16, 16), apitype.SizeOf(4, 4))
	a.NoError(err)
	// Only JPEG downscales inside the decoder
	a.Equal(16, raster.Width())
	a.Equal(16, raster.Height())
}

func TestDecode_MissingFile(t *testing.T) {
	a := assert.New(t)

	decoder := NewDecoder()
	_, err := decoder.Decode(filepath.Join(t.TempDir(), "missing.png"))
	a.Error(err)
}

func TestDecode_CorruptFile(t *testing.T) {
	a := assert.New(t)

	path := filepath.Join(t.TempDir(), "broken.png")
	a.NoError(os.WriteFile(path, []byte("not an image"), 0o644))

	decoder := NewDecoder()
	_, err := decoder.Decode(path)
	a.Error(err)
}

func TestReadOrientation_NoExif(t *testing.T) {
	a := assert.New(t)

	a.Equal(1, readOrientation(writeTestPng(t, 2, 2)))
	a.Equal(1, readOrientation(filepath.Join(t.TempDir(), "missing.jpg")))
}

func TestOrientImage(t *testing.T) {
	a := assert.New(t)

	// 2x1 with a red pixel at (0,0)
	source := image.NewRGBA(image.Rect(0, 0, 2, 1))
	source.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})

	tests := []struct {
		name        string
		orientation int
		width       int
		height      int
	}{
		{name: "unchanged", orientation: 1, width: 2, height: 1},
		{name: "flip horizontal", orientation: 2, width: 2, height: 1},
		{name: "rotate 180", orientation: 3, width: 2, height: 1},
		{name: "rotate 90 cw", orientation: 6, width: 1, height: 2},
		{name: "rotate 90 ccw", orientation: 8, width: 1, height: 2},
		{name: "out of range", orientation: 9, width: 2, height: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oriented := orientImage(source, tt.orientation)
			bounds := oriented.Bounds()
			a.Equal(tt.width, bounds.Dx())
			a.Equal(tt.height, bounds.Dy())
		})
	}

	// Rotating clockwise puts the top-left pixel at the top-right
	rotated := orientImage(source, 6)
	r, _, _, _ := rotated.At(0, 0).RGBA()
	a.NotZero(r)
}
