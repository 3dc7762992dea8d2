// Package history prints finished countdown runs from the run journal.
package history

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/viktoriya-kutsarova/project-gravity/internal/config"
	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/repository/journal"
)

// Options selects the runs to print.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// JournalFile overrides the journal path from config.
	JournalFile string
	// Limit caps the number of runs, journal.DefaultRecentLimit when zero.
	Limit int
	// RunID prints a single run instead of the most recent ones.
	RunID string
}

// Run reads the journal and writes a table to out.
func Run(ctx context.Context, opts *Options, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	journalFile := cfg.JournalFile
	if opts.JournalFile != "" {
		journalFile = opts.JournalFile
	}

	repo, err := journal.Open(ctx, journalFile)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		_ = repo.Close()
	}()

	var runs []*domain.Run

	if opts.RunID != "" {
		run, err := repo.Get(ctx, opts.RunID)
		if err != nil {
			return fmt.Errorf("get run %s: %w", opts.RunID, err)
		}

		runs = append(runs, run)
	} else {
		limit := opts.Limit
		if limit <= 0 {
			limit = journal.DefaultRecentLimit
		}

		runs, err = repo.Recent(ctx, limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
	}

	return Print(out, runs)
}

// Print writes runs as an aligned table.
func Print(out io.Writer, runs []*domain.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No alarm runs recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tOUTCOME\tTICKS\tDURATION")

	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Outcome,
			max(run.LastTick, 0),
			run.MaxTicks,
			run.Duration().Round(time.Millisecond),
		)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	return nil
}
