package preview

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/gate"
)

func newTestService(t *testing.T) (*Service, *cache.Store) {
	t.Helper()
	store := cache.New(t.TempDir(), nil)
	return New(store, gate.New(2), nil, Options{}), store
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func pngSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestImage_FitsInsideBox(t *testing.T) {
	s, _ := newTestService(t)
	p := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, p, 400, 200)

	data, ok, err := s.Image(p, 100)
	require.NoError(t, err)
	require.True(t, ok)

	w, h := pngSize(t, data)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestImage_SmallImageScaledUpToBox(t *testing.T) {
	s, _ := newTestService(t)
	dir := t.TempDir()

	wide := filepath.Join(dir, "tiny.png")
	writePNG(t, wide, 20, 10)
	data, ok, err := s.Image(wide, 256)
	require.NoError(t, err)
	require.True(t, ok)
	w, h := pngSize(t, data)
	assert.Equal(t, 256, w)
	assert.Equal(t, 128, h)

	tall := filepath.Join(dir, "tall.png")
	writePNG(t, tall, 10, 40)
	data, ok, err = s.Image(tall, 80)
	require.NoError(t, err)
	require.True(t, ok)
	w, h = pngSize(t, data)
	assert.Equal(t, 20, w)
	assert.Equal(t, 80, h)
}

func TestImage_SecondCallHitsCache(t *testing.T) {
	s, store := newTestService(t)
	p := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, p, 300, 300)

	first, ok, err := s.Image(p, 128)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), s.decodes.Load())

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.FileExists(t, store.Path(cache.Image, cache.KeyFor(p, info, 128)))

	second, ok, err := s.Image(p, 128)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), s.decodes.Load(), "cache hit must not decode again")
}

func TestImage_EmptyCacheEntryIsRegenerated(t *testing.T) {
	s, store := newTestService(t)
	p := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, p, 300, 300)

	info, err := os.Stat(p)
	require.NoError(t, err)
	entry := store.Path(cache.Image, cache.KeyFor(p, info, 32))
	require.NoError(t, os.MkdirAll(filepath.Dir(entry), 0o755))
	require.NoError(t, os.WriteFile(entry, nil, 0o644))

	data, ok, err := s.Image(p, 32)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, data)
	w, h := pngSize(t, data)
	assert.Equal(t, 32, w)
	assert.Equal(t, 32, h)
	assert.Equal(t, int64(1), s.decodes.Load())

	cached, err := os.ReadFile(entry)
	require.NoError(t, err)
	assert.Equal(t, data, cached)
}

func TestRender_DecoderPanicIsNone(t *testing.T) {
	s, store := newTestService(t)
	p := filepath.Join(t.TempDir(), "evil.png")

	data, ok, err := s.render(cache.Image, p, "00000000deadbeef", 32, func() (image.Image, error) {
		panic("boom")
	})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.Equal(t, 0, s.gate.InUse())
	assert.NoFileExists(t, store.Path(cache.Image, "00000000deadbeef"))

	// The service keeps working after a crash.
	writePNG(t, p, 40, 40)
	_, ok, err = s.Image(p, 16)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImage_DifferentSizeIsDifferentEntry(t *testing.T) {
	s, _ := newTestService(t)
	p := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, p, 300, 300)

	_, _, err := s.Image(p, 64)
	require.NoError(t, err)
	_, _, err = s.Image(p, 128)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.decodes.Load())
}

func TestImage_ConcurrentUncachedRequests(t *testing.T) {
	s, _ := newTestService(t)
	p := filepath.Join(t.TempDir(), "shared.png")
	writePNG(t, p, 240, 120)

	const n = 6
	results := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = s.Image(p, 60)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		w, h := pngSize(t, results[i])
		assert.Equal(t, 60, w)
		assert.Equal(t, 30, h)
	}
}

func TestImage_Unsupported(t *testing.T) {
	s, _ := newTestService(t)

	data, ok, err := s.Image("/does/not/matter/notes.txt", 64)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestImage_MissingFile(t *testing.T) {
	s, _ := newTestService(t)
	p := filepath.Join(t.TempDir(), "gone.jpg")

	_, ok, err := s.Image(p, 64)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), p)
}

func TestImage_CorruptFile(t *testing.T) {
	s, store := newTestService(t)
	p := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(p, []byte("definitely not a png"), 0o644))

	_, ok, err := s.Image(p, 64)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), p)

	info, _ := os.Stat(p)
	assert.NoFileExists(t, store.Path(cache.Image, cache.KeyFor(p, info, 64)))
	assert.Equal(t, 0, s.gate.InUse())
}

func TestImage_InvalidSize(t *testing.T) {
	s, _ := newTestService(t)
	p := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, p, 10, 10)

	_, _, err := s.Image(p, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestApplyOrientation(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))

	for _, o := range []int{5, 6, 7, 8} {
		b := applyOrientation(src, o).Bounds()
		assert.Equal(t, 20, b.Dx(), "orientation %d", o)
		assert.Equal(t, 40, b.Dy(), "orientation %d", o)
	}
	for _, o := range []int{1, 2, 3, 4} {
		b := applyOrientation(src, o).Bounds()
		assert.Equal(t, 40, b.Dx(), "orientation %d", o)
	}
}

func TestReadOrientation_NoExif(t *testing.T) {
	assert.Equal(t, 1, readOrientation(bytes.NewReader([]byte("plain bytes"))))
}

// psdHeader builds the fixed 26-byte header.
func psdHeader(version uint16, channels uint16, height, width uint32, depth, mode uint16) []byte {
	b := make([]byte, PSDHeaderSize)
	copy(b, "8BPS")
	binary.BigEndian.PutUint16(b[4:], version)
	binary.BigEndian.PutUint16(b[12:], channels)
	binary.BigEndian.PutUint32(b[14:], height)
	binary.BigEndian.PutUint32(b[18:], width)
	binary.BigEndian.PutUint16(b[22:], depth)
	binary.BigEndian.PutUint16(b[24:], mode)
	return b
}

func TestParsePSDHeader(t *testing.T) {
	hdr, err := ParsePSDHeader(psdHeader(1, 3, 480, 640, 8, 3))
	require.NoError(t, err)
	assert.Equal(t, PSDHeader{Version: 1, Channels: 3, Height: 480, Width: 640, Depth: 8, ColorMode: 3}, hdr)

	hdr, err = ParsePSDHeader(psdHeader(2, 4, 30000, 40000, 16, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, hdr.Version)
	assert.Equal(t, 40000, hdr.Width)
	assert.Equal(t, 30000, hdr.Height)
}

func TestParsePSDHeader_Invalid(t *testing.T) {
	bad := psdHeader(1, 3, 1, 1, 8, 3)
	copy(bad, "8BIM")

	tests := []struct {
		name string
		in   []byte
	}{
		{"short", psdHeader(1, 3, 1, 1, 8, 3)[:25]},
		{"empty", nil},
		{"signature", bad},
		{"version", psdHeader(3, 3, 1, 1, 8, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePSDHeader(tt.in)
			assert.ErrorIs(t, err, ErrNotPSD)
		})
	}
}

// writeRawPSD writes a flat RGB document with uncompressed image data.
func writeRawPSD(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(psdHeader(1, 3, uint32(h), uint32(w), 8, 3))
	buf.Write(make([]byte, 4)) // color mode data
	buf.Write(make([]byte, 4)) // image resources
	buf.Write(make([]byte, 4)) // layer and mask info
	buf.Write(make([]byte, 2)) // raw compression
	for c := 0; c < 3; c++ {
		buf.Write(bytes.Repeat([]byte{byte(80 * (c + 1))}, w*h))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestPSD_Thumbnail(t *testing.T) {
	s, store := newTestService(t)
	p := filepath.Join(t.TempDir(), "layered.psd")
	writeRawPSD(t, p, 64, 32)

	data, ok, err := s.PSD(p, 16)
	require.NoError(t, err)
	require.True(t, ok)

	w, h := pngSize(t, data)
	assert.Equal(t, 16, w)
	assert.Equal(t, 8, h)

	info, _ := os.Stat(p)
	assert.FileExists(t, store.Path(cache.PSD, cache.KeyFor(p, info, 16)))
}

func TestPSD_Unsupported(t *testing.T) {
	s, _ := newTestService(t)
	_, ok, err := s.PSD("/tmp/picture.png", 16)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDimensions(t *testing.T) {
	s, _ := newTestService(t)
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "a.png")
	writePNG(t, pngPath, 400, 200)
	w, h, ok, err := s.Dimensions(pngPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h)

	psdPath := filepath.Join(dir, "a.psd")
	require.NoError(t, os.WriteFile(psdPath, psdHeader(1, 3, 480, 640, 8, 3), 0o644))
	w, h, ok, err = s.Dimensions(psdPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestDimensions_NoResult(t *testing.T) {
	s, _ := newTestService(t)
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0o644))
	_, _, ok, err := s.Dimensions(txt)
	assert.NoError(t, err)
	assert.False(t, ok)

	short := filepath.Join(dir, "short.psd")
	require.NoError(t, os.WriteFile(short, []byte("8BPS\x00\x01"), 0o644))
	_, _, ok, err = s.Dimensions(short)
	assert.NoError(t, err)
	assert.False(t, ok)

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("nope"), 0o644))
	_, _, ok, err = s.Dimensions(garbage)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDimensions_MissingFile(t *testing.T) {
	s, _ := newTestService(t)
	_, _, ok, err := s.Dimensions(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVideo_NoFFmpeg(t *testing.T) {
	store := cache.New(t.TempDir(), nil)
	s := New(store, gate.New(1), nil, Options{FFmpeg: "razord-test-no-such-ffmpeg"})
	p := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(p, []byte("not really a video"), 0o644))

	assert.False(t, s.FFmpegAvailable())
	data, ok, err := s.Video(p, 128)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestVideo_Unsupported(t *testing.T) {
	s, _ := newTestService(t)
	_, ok, err := s.Video("/tmp/song.mp3", 128)
	assert.NoError(t, err)
	assert.False(t, ok)
}

// fakeFFmpeg writes a shell script standing in for ffmpeg. It appends its
// arguments to a log next to the script, then runs body.
func fakeFFmpeg(t *testing.T, body string) (script, argLog string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	script = filepath.Join(dir, "ffmpeg")
	argLog = filepath.Join(dir, "args.log")
	src := "#!/bin/sh\necho \"$@\" >> '" + argLog + "'\n" + body + "\n"
	require.NoError(t, os.WriteFile(script, []byte(src), 0o755))
	return script, argLog
}

func newVideoService(t *testing.T, script string) (*Service, *cache.Store, string) {
	t.Helper()
	store := cache.New(t.TempDir(), nil)
	s := New(store, gate.New(1), nil, Options{FFmpeg: script})
	p := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(p, []byte("not really a video"), 0o644))
	return s, store, p
}

func readArgLog(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestVideo_FrameReturnedAndCached(t *testing.T) {
	frame := filepath.Join(t.TempDir(), "frame.png")
	writePNG(t, frame, 64, 36)
	want, err := os.ReadFile(frame)
	require.NoError(t, err)

	script, argLog := fakeFFmpeg(t, "cat '"+frame+"'")
	s, store, p := newVideoService(t, script)
	require.True(t, s.FFmpegAvailable())

	data, ok, err := s.Video(p, 64)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, data)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.FileExists(t, store.Path(cache.Video, cache.KeyFor(p, info, 64)))

	again, ok, err := s.Video(p, 64)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, again)

	calls := readArgLog(t, argLog)
	require.Len(t, calls, 1, "cached frame must not run ffmpeg again")
	assert.Contains(t, calls[0], "-frames:v 1")
	assert.Contains(t, calls[0], "scale=64:-1")
	assert.Contains(t, calls[0], "-i "+p)
	assert.Contains(t, calls[0], "-ss 00:00:01")
}

func TestVideo_FFmpegFailureIsNone(t *testing.T) {
	script, _ := fakeFFmpeg(t, "exit 1")
	s, store, p := newVideoService(t, script)

	data, ok, err := s.Video(p, 64)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	info, _ := os.Stat(p)
	assert.NoFileExists(t, store.Path(cache.Video, cache.KeyFor(p, info, 64)))
}

func TestVideo_EmptyOutputIsNone(t *testing.T) {
	script, argLog := fakeFFmpeg(t, "exit 0")
	s, store, p := newVideoService(t, script)

	data, ok, err := s.Video(p, 64)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	info, _ := os.Stat(p)
	assert.NoFileExists(t, store.Path(cache.Video, cache.KeyFor(p, info, 64)))
	assert.Len(t, readArgLog(t, argLog), 1)
}
