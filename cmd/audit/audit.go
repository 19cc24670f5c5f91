// Package audit provides the audit command for stored session types.
package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Options are the audit command flags.
type Options struct {
	Purge   bool
	Confirm bool
}

// Command creates and returns the audit command
func Command(settings *conf.Settings) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report stored session types",
		Long: `Audit lists every session type in the database with its count and date range.
With --purge-data-collection it deletes DATA_COLLECTION sessions and the
specimens left without a session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), settings, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.Purge, "purge-data-collection", false, "Delete DATA_COLLECTION sessions and orphaned specimens")
	cmd.Flags().BoolVar(&opts.Confirm, "yes", false, "Confirm the purge")
	return cmd
}

// Execute prints the audit and optionally purges.
func Execute(ctx context.Context, settings *conf.Settings, opts Options, out io.Writer) error {
	if opts.Purge && !opts.Confirm {
		return errors.Newf("--purge-data-collection deletes data, rerun with --yes to confirm").
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}

	log := cmdutil.Logger("audit")
	store, err := cmdutil.OpenStore(settings, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()

	counts, err := store.SessionTypeAudit(ctx)
	if err != nil {
		return err
	}
	t := cmdutil.NewTable(out, "Session Type", "Count", "First Date", "Last Date")
	for _, c := range counts {
		t.AppendRow(table.Row{c.SessionType, c.Count, c.FirstDate, c.LastDate})
	}
	t.Render()

	if !opts.Purge {
		return nil
	}
	res, err := store.PurgeDataCollection(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "deleted %d DATA_COLLECTION sessions and %d orphaned specimens\n", res.Sessions, res.Specimens)
	return nil
}
