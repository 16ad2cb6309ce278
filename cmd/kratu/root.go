package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
)

type rootOptions struct {
	manifest string
	logLevel string
}

// newRootCmd builds the command tree. Commands are built per call so tests
// can run them in isolation.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kratu",
		Short: "Score and rank tabular datasets by weighted signals",
		Long: `Kratu ranks entities of a dataset by summing the weights their signals
contribute. Signals are declared in Go or in an HCL manifest; without a
manifest the built-in spaceship signals are used.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := monitoring.NewLoggerWithWriter(cmd.ErrOrStderr(), monitoring.ParseLevel(opts.logLevel))
			slog.SetDefault(logger.Logger)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.manifest, "manifest", "", "HCL signal manifest (default: built-in spaceship signals)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newSignalsCmd(opts))
	cmd.AddCommand(newRankCmd(opts))
	cmd.AddCommand(newCellsCmd(opts))
	cmd.AddCommand(newAdminTokenCmd())
	return cmd
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return err
}
