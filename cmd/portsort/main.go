// Command portsort runs portfolio sorts over a sample file from the command line.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/portsort/pkg/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "portsort",
		Short:         "Univariate and multivariate portfolio sorts",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetGlobalLogger(logger.New(logger.Config{
				Level:  logLevel,
				Pretty: true,
				Output: cmd.ErrOrStderr(),
			}))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newRunCmd(), newBreakpointsCmd())
	return rootCmd
}
