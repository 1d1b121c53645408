package preview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/oov/psd"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/filetype"
	"github.com/justyntemme/razord/internal/metrics"
)

// PSDHeaderSize is the fixed length of a PSD/PSB file header.
const PSDHeaderSize = 26

var ErrNotPSD = errors.New("not a PSD file")

// PSDHeader is the fixed header of a Photoshop document. All fields are
// big-endian on disk.
type PSDHeader struct {
	Version   int // 1 for PSD, 2 for PSB
	Channels  int
	Height    int
	Width     int
	Depth     int
	ColorMode int
}

// ParsePSDHeader decodes the first PSDHeaderSize bytes of b.
func ParsePSDHeader(b []byte) (PSDHeader, error) {
	if len(b) < PSDHeaderSize {
		return PSDHeader{}, fmt.Errorf("%w: header is %d bytes", ErrNotPSD, len(b))
	}
	if string(b[0:4]) != "8BPS" {
		return PSDHeader{}, fmt.Errorf("%w: bad signature", ErrNotPSD)
	}
	version := binary.BigEndian.Uint16(b[4:6])
	if version != 1 && version != 2 {
		return PSDHeader{}, fmt.Errorf("%w: unknown version %d", ErrNotPSD, version)
	}
	// b[6:12] is reserved.
	return PSDHeader{
		Version:   int(version),
		Channels:  int(binary.BigEndian.Uint16(b[12:14])),
		Height:    int(binary.BigEndian.Uint32(b[14:18])),
		Width:     int(binary.BigEndian.Uint32(b[18:22])),
		Depth:     int(binary.BigEndian.Uint16(b[22:24])),
		ColorMode: int(binary.BigEndian.Uint16(b[24:26])),
	}, nil
}

// PSD returns a PNG thumbnail of a Photoshop document's merged composite.
// The whole file is read into memory, so it always runs under a permit.
func (s *Service) PSD(path string, size int) ([]byte, bool, error) {
	if filetype.Ext(path) != "psd" {
		metrics.RecordPreview(cache.PSD.Label(), metrics.OutcomeUnsupported)
		return nil, false, nil
	}

	key, data, hit, err := s.lookup(cache.PSD, path, size)
	if err != nil || hit {
		return data, hit, err
	}

	return s.render(cache.PSD, path, key, size, func() (image.Image, error) {
		return decodePSD(path)
	})
}

func decodePSD(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, _, err := psd.Decode(bytes.NewReader(raw), &psd.DecodeOptions{SkipLayerImage: true})
	if err != nil {
		return nil, err
	}
	if doc.Picker == nil {
		return nil, errors.New("document has no composite image")
	}
	return imaging.Clone(doc.Picker), nil
}
