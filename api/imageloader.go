package api

import (
	"vincit.fi/luminous/api/apitype"
)

// ImageDecoder decodes a source file into an RGBA raster.
type ImageDecoder interface {
	Decode(path string) (*apitype.Raster, error)
	DecodeScaled(path string, size apitype.Size) (*apitype.Raster, error)
}
