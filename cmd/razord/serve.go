package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/justyntemme/razord/internal/api"
	"github.com/justyntemme/razord/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command API over HTTP",
	Long: `Serve every command as POST /api/<command>, directory change streams at
GET /api/watch?path=<dir> (websocket), Prometheus metrics at /metrics and
a health report at /health.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "Listen address (default RAZORD_LISTEN)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	if !a.Config().LogDev {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := serveAddr
	if addr == "" {
		addr = a.Config().Listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return api.New(a, log.Named(logging.API)).Run(ctx, addr)
}
