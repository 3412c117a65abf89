package decoder

import (
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

const exifUnchangedOrientation = 1

// readOrientation returns the EXIF orientation tag (1..8), or 1 when
// the file has no usable EXIF block.
func readOrientation(path string) int {
	file, err := os.Open(path)
	if err != nil {
		return exifUnchangedOrientation
	}
	defer file.Close()

	decodedExif, err := exif.Decode(file)
	if err != nil {
		return exifUnchangedOrientation
	}
	tag, err := decodedExif.Get(exif.Orientation)
	if err != nil {
		return exifUnchangedOrientation
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return exifUnchangedOrientation
	}
	return orientation
}

// orientImage applies the orientation on the decoded pixels; values
// per the TIFF 6.0 spec.
func orientImage(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
