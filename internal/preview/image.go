package preview

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/filetype"
	"github.com/justyntemme/razord/internal/metrics"
)

var rasterExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "bmp": true,
	"tif": true, "tiff": true,
}

var heicExts = map[string]bool{"heic": true, "heif": true}

// SupportsImage reports whether Image can produce a thumbnail for path.
func SupportsImage(path string) bool {
	ext := filetype.Ext(path)
	return rasterExts[ext] || (heicExts[ext] && heicSupported())
}

// Image returns a PNG thumbnail of a raster image fitted inside size x size.
// Images smaller than the box are scaled up to it.
func (s *Service) Image(path string, size int) ([]byte, bool, error) {
	if !SupportsImage(path) {
		metrics.RecordPreview(cache.Image.Label(), metrics.OutcomeUnsupported)
		return nil, false, nil
	}

	key, data, hit, err := s.lookup(cache.Image, path, size)
	if err != nil || hit {
		return data, hit, err
	}

	ext := filetype.Ext(path)
	return s.render(cache.Image, path, key, size, func() (image.Image, error) {
		return decodeRaster(path, ext)
	})
}

func decodeRaster(path, ext string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if heicExts[ext] {
		return decodeHEIC(f)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	if ext == "jpg" || ext == "jpeg" {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			img = applyOrientation(img, readOrientation(f))
		}
	}
	return img, nil
}

// readOrientation returns the EXIF orientation tag, or 1 when the file has
// none or it cannot be read.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
		return v
	}
	return 1
}

// applyOrientation transforms an image according to its EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
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
