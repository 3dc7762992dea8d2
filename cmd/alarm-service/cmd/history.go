package cmd

import (
	"github.com/spf13/cobra"

	"github.com/viktoriya-kutsarova/project-gravity/internal/service/history"
)

var (
	// historyLimit caps the number of runs printed.
	historyLimit int

	// historyCmd prints finished countdown runs.
	historyCmd = &cobra.Command{
		Use:   "history [run-id]",
		Short: "Print recent alarm runs.",
		Long: `Prints finished countdown runs from the run journal, newest first.

Each row shows when the countdown started, whether the alarm was sent or
cancelled, how far the countdown got and how long it lasted. Pass a run id
to print that run only.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &history.Options{
				ConfigPath:  cfgPath,
				JournalFile: journalFile,
				Limit:       historyLimit,
			}

			if len(args) > 0 {
				opts.RunID = args[0]
			}

			return history.Run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of runs to print")
}
