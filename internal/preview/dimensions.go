package preview

import (
	"fmt"
	"image"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/filetype"
	"github.com/justyntemme/razord/internal/safe"
)

type size2 struct{ w, h int }

// Dimensions reports the pixel size of an image or PSD without decoding
// pixel data. ok is false for unsupported files and for headers that cannot
// be parsed. Only a failure to open path is an error.
func (s *Service) Dimensions(path string) (w, h int, ok bool, err error) {
	ext := filetype.Ext(path)
	isPSD := ext == "psd"
	if !isPSD && !SupportsImage(path) {
		return 0, 0, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := safe.Do(func() (size2, error) {
		if isPSD {
			return psdDimensions(f)
		}
		if heicExts[ext] {
			cfg, err := decodeHEICConfig(f)
			return size2{cfg.Width, cfg.Height}, err
		}
		cfg, _, err := image.DecodeConfig(f)
		return size2{cfg.Width, cfg.Height}, err
	})
	if err != nil {
		s.log.Debug("dimensions unavailable", zap.String("path", path), zap.Error(err))
		return 0, 0, false, nil
	}
	return d.w, d.h, true, nil
}

func psdDimensions(r io.Reader) (size2, error) {
	buf := make([]byte, PSDHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return size2{}, fmt.Errorf("%w: %v", ErrNotPSD, err)
	}
	hdr, err := ParsePSDHeader(buf)
	if err != nil {
		return size2{}, err
	}
	return size2{hdr.Width, hdr.Height}, nil
}
