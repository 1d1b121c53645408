//go:build !((linux || darwin) && cgo)

package preview

import (
	"errors"
	"image"
	"io"
)

var errNoHEIC = errors.New("HEIC decoding not supported on this platform")

func decodeHEIC(io.Reader) (image.Image, error) {
	return nil, errNoHEIC
}

func decodeHEICConfig(io.Reader) (image.Config, error) {
	return image.Config{}, errNoHEIC
}

func heicSupported() bool {
	return false
}
