package app

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/razord/internal/config"
	"github.com/justyntemme/razord/internal/ops"
	"github.com/justyntemme/razord/internal/safe"
)

type stubIcons struct{ data []byte }

func (s stubIcons) Icon(string, int) ([]byte, error) {
	if s.data == nil {
		return nil, safe.ErrUnavailable
	}
	return s.data, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.FFmpeg = "razord-test-no-such-ffmpeg"
	cfg.WatchDebounce = 20 * time.Millisecond
	return cfg
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	a, err := New(testConfig(t), nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func decodeB64PNG(t *testing.T, s string) image.Config {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	return cfg
}

func TestImageThumbnailIsBase64PNG(t *testing.T) {
	a := newTestApp(t)
	p := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, p, 300, 150)

	b64, ok, err := a.GetImageThumbnail(p, 64)
	require.NoError(t, err)
	require.True(t, ok)
	cfg := decodeB64PNG(t, b64)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)

	entries, err := os.ReadDir(filepath.Join(a.Config().CacheDir, "img_thumbnails"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestThumbnailsWithoutResult(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()

	_, ok, err := a.GetImageThumbnail(filepath.Join(dir, "notes.txt"), 64)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = a.GetLayeredImageThumbnail(filepath.Join(dir, "photo.png"), 64)
	assert.NoError(t, err)
	assert.False(t, ok)

	video := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0o644))
	_, ok, err = a.GetVideoThumbnail(video, 64)
	assert.NoError(t, err)
	assert.False(t, ok, "ffmpeg is not installed under this name")
	assert.False(t, a.Status().FFmpeg)
}

func TestImageThumbnailMissingFile(t *testing.T) {
	a := newTestApp(t)
	missing := filepath.Join(t.TempDir(), "missing.png")

	_, ok, err := a.GetImageThumbnail(missing, 64)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), missing)
}

func TestGetDimensions(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	writePNG(t, p, 40, 30)

	dims, err := a.GetDimensions(p)
	require.NoError(t, err)
	require.NotNil(t, dims)
	assert.Equal(t, [2]int{40, 30}, *dims)

	dims, err = a.GetDimensions(filepath.Join(dir, "a.txt"))
	assert.NoError(t, err)
	assert.Nil(t, dims)
}

func TestGetIcon(t *testing.T) {
	a := newTestApp(t, WithIconProvider(stubIcons{data: []byte("icon-bytes")}))
	b64, ok := a.GetIcon("/x/report.pdf", 32)
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	assert.Equal(t, "icon-bytes", string(raw))

	none := newTestApp(t, WithIconProvider(stubIcons{}))
	_, ok = none.GetIcon("/x/report.pdf", 32)
	assert.False(t, ok)
}

func TestMutationsAndListing(t *testing.T) {
	var trashed []string
	a := newTestApp(t, WithEngineOptions(ops.WithTrasher(ops.TrashFunc(func(p string) error {
		trashed = append(trashed, p)
		return os.RemoveAll(p)
	}))))
	root := t.TempDir()

	docs := filepath.Join(root, "docs")
	require.NoError(t, a.CreateDirectory(docs))
	assert.True(t, a.IsDirectory(docs))

	note := filepath.Join(root, "note.txt")
	require.NoError(t, os.WriteFile(note, []byte("hello"), 0o644))
	require.NoError(t, a.Copy([]string{note}, docs))

	dups, err := a.Duplicate([]string{note})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "note (copy).txt")}, dups)

	require.NoError(t, a.Rename(dups[0], filepath.Join(root, "renamed.txt")))

	zipPath, err := a.CompressToArchive([]string{docs}, filepath.Join(root, "docs.zip"))
	require.NoError(t, err)
	assert.FileExists(t, zipPath)

	text, err := a.ReadText(filepath.Join(docs, "note.txt"), 3)
	require.NoError(t, err)
	assert.Equal(t, "hel", text)

	require.NoError(t, a.Delete([]string{filepath.Join(root, "renamed.txt")}, true))
	assert.Equal(t, []string{filepath.Join(root, "renamed.txt")}, trashed)

	moved := filepath.Join(root, "moved")
	require.NoError(t, a.CreateDirectory(moved))
	require.NoError(t, a.Move([]string{note}, moved))

	entries, err := a.ListDirectory(root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"docs", "docs.zip", "moved"}, names)
}

func TestWatch(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()

	sub, err := a.Watch(dir)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, 1, a.Status().WatchedFolders)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))
	select {
	case got := <-sub.Events():
		assert.Equal(t, sub.Dir(), got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatchDisabled(t *testing.T) {
	a := newTestApp(t, WithoutWatcher())
	_, err := a.Watch(t.TempDir())
	assert.ErrorIs(t, err, ErrNoWatcher)
}
