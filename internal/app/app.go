// Package app wires the razord services together and exposes them as one
// command surface. Thumbnail and icon bytes cross this surface as
// base64-encoded PNG.
package app

import (
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/config"
	"github.com/justyntemme/razord/internal/fs"
	"github.com/justyntemme/razord/internal/gate"
	"github.com/justyntemme/razord/internal/icon"
	"github.com/justyntemme/razord/internal/logging"
	"github.com/justyntemme/razord/internal/ops"
	"github.com/justyntemme/razord/internal/preview"
	"github.com/justyntemme/razord/internal/trash"
)

// App owns one instance of every service.
type App struct {
	cfg *config.Config
	log *zap.Logger

	lister   *fs.Lister
	cache    *cache.Store
	gate     *gate.Gate
	previews *preview.Service
	icons    *icon.Extractor
	ops      *ops.Engine
	watcher  *fs.Watcher
}

type Option func(*options)

type options struct {
	iconProvider icon.NativeIconProvider
	engineOpts   []ops.Option
	noWatcher    bool
}

// WithIconProvider replaces the platform icon provider.
func WithIconProvider(p icon.NativeIconProvider) Option {
	return func(o *options) { o.iconProvider = p }
}

// WithEngineOptions passes extra options to the mutation engine.
func WithEngineOptions(opts ...ops.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithoutWatcher skips starting the directory watcher, for one-shot CLI use.
func WithoutWatcher() Option {
	return func(o *options) { o.noWatcher = true }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log}
	a.lister = fs.NewLister(log.Named(logging.FS))
	a.cache = cache.New(cfg.CacheDir, log.Named(logging.Cache))
	a.gate = gate.New(cfg.MaxHeavyOps)
	a.previews = preview.New(a.cache, a.gate, log.Named(logging.Preview), preview.Options{
		FFmpeg:      cfg.FFmpeg,
		VideoOffset: cfg.VideoOffset,
	})
	a.icons = icon.New(o.iconProvider, log.Named(logging.Icon))

	engineOpts := append([]ops.Option{
		ops.WithLocale(cfg.Locale),
		ops.WithCharsetDetection(cfg.DetectCharset),
	}, o.engineOpts...)
	a.ops = ops.New(log.Named(logging.Ops), engineOpts...)

	if !o.noWatcher {
		w, err := fs.NewWatcher(cfg.WatchDebounce, log.Named(logging.Watch))
		if err != nil {
			return nil, fmt.Errorf("start watcher: %w", err)
		}
		a.watcher = w
	}

	log.Info("app initialized",
		zap.String("cache_dir", cfg.CacheDir),
		zap.Int("max_heavy_ops", a.gate.Max()),
		zap.String("locale", cfg.Locale))
	return a, nil
}

func (a *App) Close() error {
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}

func (a *App) Config() *config.Config { return a.cfg }

// Status summarizes optional capabilities for health checks.
type Status struct {
	CacheDir       string `json:"cache_dir"`
	MaxHeavyOps    int    `json:"max_heavy_ops"`
	HeavyOpsInUse  int    `json:"heavy_ops_in_use"`
	FFmpeg         bool   `json:"ffmpeg"`
	Trash          bool   `json:"trash"`
	TrashName      string `json:"trash_name"`
	IconsCached    int    `json:"icons_cached"`
	WatchedFolders int    `json:"watched_folders"`
}

func (a *App) Status() Status {
	s := Status{
		CacheDir:      a.cache.Root(),
		MaxHeavyOps:   a.gate.Max(),
		HeavyOpsInUse: a.gate.InUse(),
		FFmpeg:        a.previews.FFmpegAvailable(),
		Trash:         trash.IsAvailable(),
		TrashName:     trash.DisplayName(),
		IconsCached:   a.icons.Len(),
	}
	if a.watcher != nil {
		s.WatchedFolders = a.watcher.Watching()
	}
	return s
}

func (a *App) ListDirectory(path string) ([]fs.Entry, error) {
	return a.lister.List(path)
}

func (a *App) IsDirectory(path string) bool {
	return fs.IsDirectory(path)
}

func (a *App) ListDrives() []fs.Drive {
	return fs.ListDrives()
}

// GetDimensions returns [width, height], or nil when the format is
// unsupported or unreadable.
func (a *App) GetDimensions(path string) (*[2]int, error) {
	w, h, ok, err := a.previews.Dimensions(path)
	if err != nil || !ok {
		return nil, err
	}
	return &[2]int{w, h}, nil
}

func (a *App) GetImageThumbnail(path string, size int) (string, bool, error) {
	return encoded(a.previews.Image(path, size))
}

func (a *App) GetLayeredImageThumbnail(path string, size int) (string, bool, error) {
	return encoded(a.previews.PSD(path, size))
}

func (a *App) GetVideoThumbnail(path string, size int) (string, bool, error) {
	return encoded(a.previews.Video(path, size))
}

func (a *App) GetIcon(path string, size int) (string, bool) {
	data, ok := a.icons.Get(path, size)
	if !ok {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(data), true
}

func encoded(data []byte, ok bool, err error) (string, bool, error) {
	if err != nil || !ok {
		return "", false, err
	}
	return base64.StdEncoding.EncodeToString(data), true, nil
}

func (a *App) Copy(sources []string, dest string) error {
	return a.ops.Copy(sources, dest)
}

func (a *App) Duplicate(sources []string) ([]string, error) {
	return a.ops.Duplicate(sources)
}

func (a *App) Move(sources []string, dest string) error {
	return a.ops.Move(sources, dest)
}

func (a *App) Delete(paths []string, useTrash bool) error {
	return a.ops.Delete(paths, useTrash)
}

func (a *App) CreateDirectory(path string) error {
	return a.ops.CreateDirectory(path)
}

func (a *App) Rename(oldPath, newPath string) error {
	return a.ops.Rename(oldPath, newPath)
}

func (a *App) CompressToArchive(sources []string, dest string) (string, error) {
	return a.ops.Archive(sources, dest)
}

func (a *App) ReadText(path string, maxBytes int) (string, error) {
	return a.ops.ReadText(path, maxBytes)
}

// ErrNoWatcher is returned by Watch when the app was built without one.
var ErrNoWatcher = errors.New("directory watching is disabled")

// Watch subscribes to change notifications for dir.
func (a *App) Watch(dir string) (*fs.Subscription, error) {
	if a.watcher == nil {
		return nil, ErrNoWatcher
	}
	return a.watcher.Subscribe(dir)
}
