//go:build (linux || darwin) && cgo

package preview

import (
	"image"
	"io"

	"github.com/jdeng/goheif"
)

func decodeHEIC(r io.Reader) (image.Image, error) {
	return goheif.Decode(r)
}

func decodeHEICConfig(r io.Reader) (image.Config, error) {
	return goheif.DecodeConfig(r)
}

func heicSupported() bool {
	return true
}
