// Package targets implements the commands that manage notification targets.
package targets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jonesrussell/exposure-watch/cmd/common"
	"github.com/jonesrussell/exposure-watch/internal/notifier"
	"github.com/jonesrussell/exposure-watch/internal/targets"
	"github.com/spf13/cobra"
)

// Registry is the target store the commands operate on.
type Registry interface {
	List(ctx context.Context) ([]notifier.Target, error)
	Add(ctx context.Context, target notifier.Target) error
	Remove(ctx context.Context, target notifier.Target) error
}

// Command returns the targets command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage the targets that receive new-site announcements",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered targets",
			Args:  cobra.NoArgs,
			RunE: withRegistry(func(cmd *cobra.Command, reg Registry, _ []string) error {
				return List(cmd.Context(), reg, cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "add <group> <channel>",
			Short: "Register a target",
			Args:  cobra.ExactArgs(2),
			RunE: withRegistry(func(cmd *cobra.Command, reg Registry, args []string) error {
				return Add(cmd.Context(), reg, cmd.OutOrStdout(), target(args))
			}),
		},
		&cobra.Command{
			Use:   "remove <group> <channel>",
			Short: "Unregister a target",
			Args:  cobra.ExactArgs(2),
			RunE: withRegistry(func(cmd *cobra.Command, reg Registry, args []string) error {
				return Remove(cmd.Context(), reg, cmd.OutOrStdout(), target(args))
			}),
		},
	)

	return cmd
}

func withRegistry(fn func(*cobra.Command, Registry, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		deps, err := common.NewCommandDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		return fn(cmd, deps.NewRegistry(), args)
	}
}

func target(args []string) notifier.Target {
	return notifier.Target{
		GroupID:   strings.TrimSpace(args[0]),
		ChannelID: strings.TrimSpace(args[1]),
	}
}

// List prints the registered targets as a table.
func List(ctx context.Context, reg Registry, out io.Writer) error {
	list, err := reg.List(ctx)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No targets registered.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	t.AppendHeader(table.Row{"Group", "Channel"})
	for _, tgt := range list {
		t.AppendRow(table.Row{tgt.GroupID, tgt.ChannelID})
	}

	t.Render()
	return nil
}

// Add registers tgt. An already registered target is reported, not failed.
func Add(ctx context.Context, reg Registry, out io.Writer, tgt notifier.Target) error {
	err := reg.Add(ctx, tgt)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Added %s; it will receive new exposure sites.\n", tgt)
		return nil
	case errors.Is(err, targets.ErrTargetExists):
		fmt.Fprintf(out, "%s is already in the list.\n", tgt)
		return nil
	default:
		return fmt.Errorf("add target: %w", err)
	}
}

// Remove unregisters tgt. An unknown target is reported, not failed.
func Remove(ctx context.Context, reg Registry, out io.Writer, tgt notifier.Target) error {
	err := reg.Remove(ctx, tgt)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Removed %s; it will no longer receive new exposure sites.\n", tgt)
		return nil
	case errors.Is(err, targets.ErrTargetNotFound):
		fmt.Fprintf(out, "%s isn't currently in the list.\n", tgt)
		return nil
	default:
		return fmt.Errorf("remove target: %w", err)
	}
}
