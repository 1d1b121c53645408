// Package icon resolves the desktop's icon for a file type as PNG bytes and
// keeps every resolved icon in memory for the life of the process.
//
// Icons are cached by lowercased extension and size, not by file, so every
// ".pdf" shares one entry per size and all directories share one synthetic
// entry per size.
package icon

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/razord/internal/filetype"
	"github.com/justyntemme/razord/internal/metrics"
	"github.com/justyntemme/razord/internal/safe"
)

// FolderKey stands in for the extension of every directory.
const FolderKey = "__folder__"

// NativeIconProvider renders the platform icon for path at roughly size
// pixels. Implementations return safe.ErrUnavailable when the platform has
// no icon service or the lookup found nothing.
type NativeIconProvider interface {
	Icon(path string, size int) ([]byte, error)
}

type cacheKey struct {
	ext  string
	size int
}

type Extractor struct {
	provider NativeIconProvider
	log      *zap.Logger

	mu    sync.Mutex
	icons map[cacheKey][]byte
	group singleflight.Group
}

// New returns an Extractor backed by provider. A nil provider selects the
// platform default.
func New(provider NativeIconProvider, log *zap.Logger) *Extractor {
	if provider == nil {
		provider = NewPlatformProvider()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		provider: provider,
		log:      log,
		icons:    make(map[cacheKey][]byte),
	}
}

func keyFor(path string, size int) cacheKey {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return cacheKey{ext: FolderKey, size: size}
	}
	return cacheKey{ext: filetype.Ext(path), size: size}
}

// Get returns the icon for path. ok is false when the provider could not
// produce one; such failures are not cached and the next call retries.
func (e *Extractor) Get(path string, size int) ([]byte, bool) {
	key := keyFor(path, size)

	e.mu.Lock()
	data, hit := e.icons[key]
	e.mu.Unlock()
	metrics.RecordIconLookup(hit)
	if hit {
		return data, true
	}

	v, err, _ := e.group.Do(fmt.Sprintf("%s\x00%d", key.ext, key.size), func() (any, error) {
		e.mu.Lock()
		cached, ok := e.icons[key]
		e.mu.Unlock()
		if ok {
			return cached, nil
		}

		data, err := safe.Do(func() ([]byte, error) {
			return e.provider.Icon(path, size)
		})
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, safe.ErrUnavailable
		}
		e.mu.Lock()
		e.icons[key] = data
		e.mu.Unlock()
		return data, nil
	})
	if err != nil {
		switch {
		case safe.Crashed(err):
			e.log.Warn("icon provider crashed", zap.String("path", path), zap.Error(err))
		case !errors.Is(err, safe.ErrUnavailable):
			e.log.Debug("icon lookup failed", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	return v.([]byte), true
}

// Len returns the number of cached icons.
func (e *Extractor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.icons)
}

type unavailable struct{}

func (unavailable) Icon(string, int) ([]byte, error) { return nil, safe.ErrUnavailable }

// encodeFit scales img into a size x size box and encodes it as PNG.
func encodeFit(img image.Image, size int) ([]byte, error) {
	if b := img.Bounds(); b.Dx() > size || b.Dy() > size {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
