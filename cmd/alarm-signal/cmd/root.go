package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/client"
	"github.com/viktoriya-kutsarova/project-gravity/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the server address from config.
	serverAddress string
	// retry keeps posting while the service is unreachable.
	retry bool

	// rootCmd represents the base command for posting alarm events.
	rootCmd = &cobra.Command{
		Use:       "alarm-signal <fall|stop|stopped|screen-off>",
		Short:     "Post an event to the alarm service.",
		ValidArgs: []string{"fall", "stop", "stopped", "screen-off"},
		Long: `Posts a single event to the alarm service.

  fall        a fall was detected, starts the countdown
  stop        the user stopped the countdown
  stopped     the alarm was stopped elsewhere
  screen-off  the screen turned off, sensor listeners are reset shortly after

With --retry the event is posted again every second until the service accepts
it, which is what a fall detector should use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Event:         args[0],
				Retry:         retry,
			})
		},
	}
)

// Execute runs the alarm-signal CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&serverAddress, "server", "s", "", "alarm service address (overrides config)")
	rootCmd.Flags().BoolVarP(&retry, "retry", "r", false, "retry until the service accepts the event")
}
