// Package preview produces PNG thumbnails for raster images, Photoshop
// documents and videos, backed by the on-disk thumbnail cache.
//
// Every thumbnail method returns (data, ok, err). ok=false with a nil error
// means no preview is available for the input: unsupported extension, a
// missing external tool, or a decoder that crashed inside the crash boundary.
// A non-nil error names the offending path.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/gate"
	"github.com/justyntemme/razord/internal/metrics"
	"github.com/justyntemme/razord/internal/safe"
)

var ErrInvalidSize = errors.New("thumbnail size must be positive")

type Options struct {
	// FFmpeg is the executable name or path used for video frames.
	FFmpeg string
	// VideoOffset is the timestamp of the extracted frame, in ffmpeg syntax.
	VideoOffset string
}

type Service struct {
	cache *cache.Store
	gate  *gate.Gate
	log   *zap.Logger

	videoOffset string
	ffmpeg      func() (string, error)
	videos      singleflight.Group

	// Number of in-process decodes started. Cache hits never increment it.
	decodes atomic.Int64
}

func New(store *cache.Store, g *gate.Gate, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.VideoOffset == "" {
		opts.VideoOffset = "00:00:01"
	}
	name := opts.FFmpeg
	return &Service{
		cache:       store,
		gate:        g,
		log:         log,
		videoOffset: opts.VideoOffset,
		ffmpeg: sync.OnceValues(func() (string, error) {
			return exec.LookPath(name)
		}),
	}
}

// render runs decode and the shared resize/encode tail under a gate permit
// and the crash boundary, then writes the result through to the cache.
func (s *Service) render(kind cache.Kind, path, key string, size int, decode func() (image.Image, error)) ([]byte, bool, error) {
	start := time.Now()

	var (
		data []byte
		err  error
	)
	s.gate.Do(func() {
		data, err = safe.Do(func() ([]byte, error) {
			s.decodes.Add(1)
			img, err := decode()
			if err != nil {
				return nil, err
			}
			return encodePNG(fitBox(img, size))
		})
	})

	switch {
	case safe.Crashed(err):
		metrics.RecordPreview(kind.Label(), metrics.OutcomeNone)
		s.log.Warn("decoder crashed", zap.String("kind", kind.Label()), zap.String("path", path), zap.Error(err))
		return nil, false, nil
	case err != nil:
		metrics.RecordPreview(kind.Label(), metrics.OutcomeError)
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}

	s.cache.Put(kind, key, data)
	metrics.RecordPreview(kind.Label(), metrics.OutcomeGenerated)
	metrics.ObservePreviewDuration(kind.Label(), time.Since(start))
	s.log.Debug("thumbnail generated",
		zap.String("kind", kind.Label()),
		zap.String("path", path),
		zap.Int("size", size),
		zap.Duration("took", time.Since(start)))
	return data, true, nil
}

// lookup stats path and checks the cache. A stat failure is an error.
func (s *Service) lookup(kind cache.Kind, path string, size int) (key string, data []byte, hit bool, err error) {
	if size <= 0 {
		return "", nil, false, fmt.Errorf("%s: %w", path, ErrInvalidSize)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	key = cache.KeyFor(path, info, size)
	if data, ok := s.cache.Get(kind, key); ok {
		metrics.RecordPreview(kind.Label(), metrics.OutcomeCached)
		return key, data, true, nil
	}
	return key, nil, false, nil
}

// fitBox scales img to fit inside size x size keeping its aspect ratio.
// Smaller images are enlarged until their longer side reaches size.
func fitBox(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() > size || b.Dy() > size {
		return imaging.Fit(img, size, size, imaging.Lanczos)
	}
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, size, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, size, imaging.Lanczos)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
