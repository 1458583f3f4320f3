// Package check implements the one-shot check command.
package check

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jonesrussell/exposure-watch/cmd/common"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"github.com/jonesrussell/exposure-watch/internal/watcher"
	"github.com/spf13/cobra"
)

// Command returns the check command.
func Command() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single check cycle and print the new sites",
		Long: `check loads the snapshot, fetches the listing once and prints the sites
that are new since the last check. Without --dry-run the snapshot is
saved and the new sites are announced, exactly as one watch cycle would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, cancel := common.SignalContext(cmd.Context(), deps.Logger)
			defer cancel()

			w, err := deps.NewWatcher(ctx, nil, dryRun)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}

			return run(ctx, w, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "detect new sites without saving or announcing them")

	return cmd
}

// cycleRunner is the part of the watcher the check command drives.
type cycleRunner interface {
	Init(ctx context.Context) error
	RunOnce(ctx context.Context) watcher.CycleResult
}

func run(ctx context.Context, w cycleRunner, out io.Writer) error {
	if err := w.Init(ctx); err != nil {
		return err
	}

	result := w.RunOnce(ctx)
	if result.Err != nil {
		return fmt.Errorf("check %s: %w", result.Outcome, result.Err)
	}

	fmt.Fprintf(out, "Outcome: %s (%d parsed, %d row errors, %d new, %d removed)\n",
		result.Outcome, result.Parsed, result.RowErrors, len(result.New), result.Removed)
	if len(result.New) > 0 {
		RenderRecords(out, result.New)
	}

	return errors.Join(result.SaveErr, result.NotifyErr)
}

// RenderRecords writes records as a table.
func RenderRecords(out io.Writer, records []record.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	t.AppendHeader(table.Row{"Date", "Time", "Campus", "Location", "Contact Status"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Date, r.Time, r.Campus, r.Location, r.ContactStatus})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(records)})

	t.Render()
}
