package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/coffeebar/internal/build"
	"github.com/shaharia-lab/coffeebar/internal/config"
	"github.com/shaharia-lab/coffeebar/internal/devserver"
	"github.com/shaharia-lab/coffeebar/internal/telemetry"
)

// defaultFrontendDir is served when the binary carries no embedded build.
const defaultFrontendDir = "frontend/dist"

// NewDevCmd returns the "dev" subcommand that runs the frontend dev server.
func NewDevCmd(cfg *config.AppConfig) *cobra.Command {
	var dir string
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the frontend dev server",
		Long: `Start the frontend dev server on port 5173. Requests under /api are
proxied to VITE_API_TARGET (default http://localhost:8000); everything else
is served from the UI build.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devCfg, err := config.LoadDevServer()
			if err != nil {
				return err
			}

			sysLogger, err := newLogger(cmd, cfg, "devserver")
			if err != nil {
				return err
			}

			opts := devserver.Options{Assets: WebFS, Dir: dir, Logger: sysLogger}
			if opts.Assets == nil && opts.Dir == "" {
				opts.Dir = defaultFrontendDir
			}

			url := fmt.Sprintf("http://localhost:%d", devCfg.Server.Port)
			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd.OutOrStdout(), banner{
				Title:   "coffeebar dev server",
				Version: build.Version,
				URL:     url,
				Target:  devCfg.APITarget(),
				LogFile: logFile,
			})

			if err := runDev(cfg, devCfg, opts, url, noBrowser); err != nil {
				sysLogger.Error("dev server stopped", "error", err)
				return fmt.Errorf("%w (logs: %s)", err, logFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Serve UI assets from this directory and live reload on change")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not automatically open the browser on startup")
	return cmd
}

func runDev(cfg *config.AppConfig, devCfg *config.DevServerConfig, opts devserver.Options, url string, noBrowser bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger := opts.Logger
	sysLogger.Info("dev server starting",
		slog.String("version", build.Version),
		slog.Any("plugins", devCfg.Plugins),
		slog.Int("port", devCfg.Server.Port),
		slog.String("api_target", devCfg.APITarget()),
		slog.String("dir", opts.Dir),
	)

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    "coffeebar-dev",
		ServiceVersion: build.Version,
		Endpoint:       cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	if tp.Enabled() {
		sysLogger.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			sysLogger.Warn("flushing traces", "error", err)
		}
	}()

	srv, err := devserver.New(devCfg, opts)
	if err != nil {
		return fmt.Errorf("creating dev server: %w", err)
	}

	if !noBrowser {
		go openBrowser(url)
	}
	return srv.Run(ctx)
}
