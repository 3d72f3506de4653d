package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/logging"
	"github.com/weftlabs/weft/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the development preview server",
	Long: `Start the development preview server. Components under the configured
roots are scanned on startup, previews are served with their collected
assets, and connected browsers reload when sources change.

Examples:
  weft serve                      # Serve on the configured host and port
  weft serve -p 3000              # Override the port
  weft serve --no-hot-reload      # Disable the file watcher`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8120, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-hot-reload", false, "Disable file watching and live reload")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))

	addFlagValidation(serveCmd, "port", validatePort)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if noReload, _ := cmd.Flags().GetBool("no-hot-reload"); noReload {
		cfg.Development.HotReload = false
	}

	logger := newLogger(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

func newLogger(cfg *config.Config) logging.Logger {
	logConfig := logging.DefaultConfig()
	switch cfg.LogLevel {
	case "debug":
		logConfig.Level = logging.LevelDebug
	case "warn":
		logConfig.Level = logging.LevelWarn
	case "error":
		logConfig.Level = logging.LevelError
	}
	return logging.NewLogger(logConfig)
}
