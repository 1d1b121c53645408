package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RAZORD"

// Config holds all runtime settings, read from RAZORD_* environment
// variables.
type Config struct {
	// Root of the thumbnail cache. Empty means <user cache dir>/razord.
	CacheDir string `envconfig:"CACHE_DIR"`

	MaxHeavyOps int    `envconfig:"MAX_HEAVY_OPS" default:"8"`
	FFmpeg      string `envconfig:"FFMPEG" default:"ffmpeg"`
	VideoOffset string `envconfig:"VIDEO_OFFSET" default:"00:00:01"`

	// BCP 47 tag used for duplicate-name suffixes.
	Locale string `envconfig:"LOCALE" default:"en"`

	Listen        string        `envconfig:"LISTEN" default:"127.0.0.1:7373"`
	WatchDebounce time.Duration `envconfig:"WATCH_DEBOUNCE" default:"200ms"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev        bool   `envconfig:"LOG_DEV" default:"false"`
	DetectCharset bool   `envconfig:"TEXT_DETECT_CHARSET" default:"false"`
}

// Load loads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns Default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheDir:      defaultCacheDir(),
		MaxHeavyOps:   8,
		FFmpeg:        "ffmpeg",
		VideoOffset:   "00:00:01",
		Locale:        "en",
		Listen:        "127.0.0.1:7373",
		WatchDebounce: 200 * time.Millisecond,
		LogLevel:      "info",
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "razord")
}
