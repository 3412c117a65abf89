package apitype

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRaster(t *testing.T) {
	a := assert.New(t)

	raster := NewRaster(2, 2, make([]byte, 16))
	a.Equal(2, raster.Width())
	a.Equal(2, raster.Height())
	a.Equal(16, raster.ByteLength())
	a.False(raster.IsPlaceholder())
}

func TestNewRaster_InvalidBufferLength(t *testing.T) {
	a := assert.New(t)

	raster := NewRaster(10, 10, make([]byte, 3))
	a.True(raster.IsPlaceholder())
}

func TestNewPlaceholder(t *testing.T) {
	a := assert.New(t)

	raster := NewPlaceholder()
	a.Equal(1, raster.Width())
	a.Equal(1, raster.Height())
	a.True(raster.IsPlaceholder())
	a.Equal([]byte{0, 0, 0, 0}, raster.Pix())
}

func TestRasterFromImage_SharesTightRgba(t *testing.T) {
	a := assert.New(t)

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	rgba.SetRGBA(2, 1, color.RGBA{R: 0xFF, A: 0xFF})

	raster := RasterFromImage(rgba)
	a.Equal(3, raster.Width())
	a.Equal(2, raster.Height())
	// Tightly packed source buffer is shared, not copied
	a.Equal(&rgba.Pix[0], &raster.Pix()[0])
}

func TestRasterFromImage_ConvertsOtherFormats(t *testing.T) {
	a := assert.New(t)

	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	nrgba.SetNRGBA(0, 0, color.NRGBA{G: 0xFF, A: 0xFF})

	raster := RasterFromImage(nrgba)
	a.Equal(2, raster.Width())
	a.Equal(2, raster.Height())
	a.Equal(byte(0xFF), raster.Pix()[1])
	a.Equal(byte(0xFF), raster.Pix()[3])
}

func TestRasterFromImage_Nil(t *testing.T) {
	a := assert.New(t)

	a.True(RasterFromImage(nil).IsPlaceholder())
}

func TestRaster_ToImageRoundTrip(t *testing.T) {
	a := assert.New(t)

	pix := make([]byte, 4*2*2)
	pix[0] = 0x11
	pix[15] = 0x44
	raster := NewRaster(2, 2, pix)

	img := raster.ToImage()
	a.Equal(image.Rect(0, 0, 2, 2), img.Bounds())
	a.Equal(raster.Pix(), img.Pix)

	back := RasterFromImage(img)
	a.Equal(&raster.Pix()[0], &back.Pix()[0])
}
