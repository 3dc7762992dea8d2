package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/watch"
	"github.com/viktoriya-kutsarova/project-gravity/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string

	// rootCmd represents the base command for the alarm viewer.
	rootCmd = &cobra.Command{
		Use:   "alarm-watch [server-address]",
		Short: "Follow the alarm countdown in the terminal.",
		Long: `Shows the alarm state, the notification text and the countdown progress
as they change. Press s to stop a running countdown and q to quit.

Set ui_command in the configuration to start this viewer automatically when a
countdown begins.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return watch.Run(ctx, &watch.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
			})
		},
	}
)

// Execute runs the alarm-watch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
