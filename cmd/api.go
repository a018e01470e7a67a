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

	"github.com/shaharia-lab/coffeebar/internal/api"
	"github.com/shaharia-lab/coffeebar/internal/build"
	"github.com/shaharia-lab/coffeebar/internal/config"
	"github.com/shaharia-lab/coffeebar/internal/eventbus"
	"github.com/shaharia-lab/coffeebar/internal/server"
	"github.com/shaharia-lab/coffeebar/internal/service"
	"github.com/shaharia-lab/coffeebar/internal/storage"
	"github.com/shaharia-lab/coffeebar/internal/telemetry"
)

// NewAPICmd returns the "api" subcommand that starts the coffee machine backend.
func NewAPICmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Start the coffee machine API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			sysLogger, err := newLogger(cmd, cfg, "api")
			if err != nil {
				return err
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd.OutOrStdout(), banner{
				Title:   "coffeebar api",
				Version: build.Version,
				URL:     fmt.Sprintf("http://localhost:%d/api", cfg.Port),
				LogFile: logFile,
			})

			if err := runAPI(cfg, sysLogger); err != nil {
				sysLogger.Error("api server stopped", "error", err)
				return fmt.Errorf("%w (logs: %s)", err, logFile)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runAPI(cfg *config.AppConfig, sysLogger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger.Info("coffeebar api starting",
		slog.Int("port", cfg.Port),
		slog.Int("rate_limit", cfg.RateLimit),
		slog.Int("water_capacity_ml", cfg.WaterCapacityML),
		slog.Int("coffee_capacity_g", cfg.CoffeeCapacityG),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName:    "coffeebar-api",
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

	store := storage.NewMemoryMachineStore(storage.NewMachineState(cfg.WaterCapacityML, cfg.CoffeeCapacityG))
	bus := eventbus.New(2, sysLogger)
	defer bus.Close()

	machineSvc := service.NewMachineService(store, sysLogger, service.WithEventPublisher(bus))
	apiSrv := api.New(machineSvc, bus, sysLogger)
	srv := server.New(apiSrv, server.Options{Port: cfg.Port, RateLimit: cfg.RateLimit}, sysLogger)

	return srv.Run(ctx)
}
