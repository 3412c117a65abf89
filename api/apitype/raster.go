package apitype

import (
	"image"
	"image/draw"
)

// Raster is a decoded image: width, height and a tightly packed RGBA8
// pixel buffer. A Raster is immutable once created. Copies made with
// the cache share the underlying buffer, so passing rasters by value
// between the cache and the UI is cheap.
type Raster struct {
	width  int
	height int
	pix    []byte
}

const rasterBytesPerPixel = 4

func NewRaster(width int, height int, pix []byte) *Raster {
	if len(pix) != width*height*rasterBytesPerPixel {
		return NewPlaceholder()
	}
	return &Raster{
		width:  width,
		height: height,
		pix:    pix,
	}
}

// NewPlaceholder returns the 1x1 transparent raster substituted for
// failed decodes.
func NewPlaceholder() *Raster {
	return &Raster{
		width:  1,
		height: 1,
		pix:    make([]byte, rasterBytesPerPixel),
	}
}

// RasterFromImage converts any image to a tightly packed RGBA raster.
// An *image.RGBA with a tight stride is wrapped without copying.
func RasterFromImage(img image.Image) *Raster {
	if img == nil {
		return NewPlaceholder()
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*rasterBytesPerPixel && bounds.Min == (image.Point{}) {
		return NewRaster(width, height, rgba.Pix)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return NewRaster(width, height, rgba.Pix)
}

func (s *Raster) Width() int {
	if s != nil {
		return s.width
	}
	return 0
}

func (s *Raster) Height() int {
	if s != nil {
		return s.height
	}
	return 0
}

// Pix returns the shared pixel buffer. Callers must not mutate it.
func (s *Raster) Pix() []byte {
	if s != nil {
		return s.pix
	}
	return nil
}

func (s *Raster) IsPlaceholder() bool {
	return s == nil || (s.width == 1 && s.height == 1)
}

func (s *Raster) ByteLength() int {
	if s != nil {
		return len(s.pix)
	}
	return 0
}

// ToImage wraps the raster as an *image.RGBA sharing the pixel buffer.
func (s *Raster) ToImage() *image.RGBA {
	if s == nil {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	return &image.RGBA{
		Pix:    s.pix,
		Stride: s.width * rasterBytesPerPixel,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}
