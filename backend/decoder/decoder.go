package decoder

import (
	"image"
	_ "image/gif"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pixiv/go-libjpeg/jpeg"
	"vincit.fi/luminous/api"
	"vincit.fi/luminous/api/apitype"
	"vincit.fi/luminous/common/logger"
)

var options = &jpeg.DecoderOptions{}

// BuiltinDecoder decodes the formats the host supports without
// plugins: JPEG through libjpeg, the rest through the registered
// stdlib and x/image codecs. EXIF orientation is applied so rasters
// always come out upright.
type BuiltinDecoder struct {
	api.ImageDecoder
}

func NewDecoder() api.ImageDecoder {
	return &BuiltinDecoder{}
}

func (s *BuiltinDecoder) Decode(path string) (*apitype.Raster, error) {
	return s.decode(path, nil)
}

// DecodeScaled decodes targeting the given size. For JPEG the decoder
// itself downscales, which is much cheaper than decoding full size;
// other formats decode full size. The result is only guaranteed to be
// at least the target size, callers resample to the exact fit.
func (s *BuiltinDecoder) DecodeScaled(path string, size apitype.Size) (*apitype.Raster, error) {
	return s.decode(path, &size)
}

func (s *BuiltinDecoder) decode(path string, size *apitype.Size) (*apitype.Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	startTime := time.Now()
	var decoded image.Image
	if isJpeg(path) {
		decodeOptions := options
		if size != nil {
			decodeOptions = &jpeg.DecoderOptions{
				ScaleTarget: image.Rect(0, 0, size.Width(), size.Height()),
			}
		}
		decoded, err = jpeg.DecodeIntoRGBA(file, decodeOptions)
	} else {
		decoded, _, err = image.Decode(file)
	}
	if err != nil {
		return nil, err
	}

	decoded = orientImage(decoded, readOrientation(path))
	logger.Trace.Printf("'%s': decoded in %s", path, time.Since(startTime).String())

	return apitype.RasterFromImage(decoded), nil
}

func isJpeg(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
