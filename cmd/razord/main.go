package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/app"
	"github.com/justyntemme/razord/internal/config"
	"github.com/justyntemme/razord/internal/logging"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "razord",
	Short: "Local-disk file manager back end",
	Long: `razord lists directories, renders cached thumbnails and icons, and
performs copy, move, duplicate, delete and archive operations.

Settings come from RAZORD_* environment variables. Run "razord serve" to
expose every command over HTTP, or call the commands directly.`,
	SilenceUsage: true,
}

var logLevel string

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override RAZORD_LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lsCmd, drivesCmd, catCmd)
	rootCmd.AddCommand(thumbCmd, dimsCmd, iconCmd)
	rootCmd.AddCommand(cpCmd, mvCmd, dupCmd, rmCmd, mkdirCmd, renameCmd, zipCmd)
}

// setup loads configuration and builds the app. One-shot commands pass
// app.WithoutWatcher.
func setup(opts ...app.Option) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Development = cfg.LogDev
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	a, err := app.New(cfg, log, opts...)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return a, log, nil
}

// withApp runs fn against a watcher-less app and releases it afterwards.
func withApp(fn func(a *app.App) error) error {
	a, log, err := setup(app.WithoutWatcher())
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()
	return fn(a)
}
