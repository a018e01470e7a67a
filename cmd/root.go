package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/coffeebar/internal/config"
	"github.com/shaharia-lab/coffeebar/internal/logger"
)

// NewRootCmd builds the coffeebar command tree around cfg.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "coffeebar",
		Short: "Coffee machine UI dev server and backend",
		Long: `coffeebar runs the local development loop of the coffee machine UI:
a frontend dev server that proxies /api to the backend, and the backend itself.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("log-stderr", false, "Also write logs to stderr")

	root.AddCommand(NewDevCmd(cfg))
	root.AddCommand(NewAPICmd(cfg))
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewVersionCmd())
	root.AddCommand(NewUpdateCmd())
	return root
}

// Execute loads the environment configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger creates the process logger, tagged with component.
func newLogger(cmd *cobra.Command, cfg *config.AppConfig, component string) (*slog.Logger, error) {
	var tee io.Writer
	if toStderr, _ := cmd.Flags().GetBool("log-stderr"); toStderr {
		tee = cmd.ErrOrStderr()
	}
	l, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), tee)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger.WithComponent(l, component), nil
}
