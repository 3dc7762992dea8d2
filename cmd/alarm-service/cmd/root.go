package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/server"
	"github.com/viktoriya-kutsarova/project-gravity/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// listenAddress overrides the listen address from config.
	listenAddress string
	// journalFile overrides the run journal path from config.
	journalFile string

	// rootCmd represents the base command for the alarm service.
	rootCmd = &cobra.Command{
		Use:   "alarm-service [listen-address]",
		Short: "Run the fall alarm countdown service.",
		Long: `Runs the fall alarm countdown service in the foreground.

When a fall is posted the service starts a 60 second countdown, publishes its
progress and sends the alarm unless the countdown is stopped in time. The
outcome stays visible for five seconds before the service listens for falls
again.

Events are posted with alarm-signal and the countdown can be followed and
stopped with alarm-watch. The listen address can be provided as argument or
loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    cfgPath,
				ListenAddress: listenAddress,
				JournalFile:   journalFile,
			})
		},
	}
)

// Execute runs the alarm-service CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&journalFile, "journal", "j", "", "path to run journal database (overrides config)")

	rootCmd.AddCommand(historyCmd)
}
