// Package load provides the load command, which reloads the store from the
// latest cleaned CSV exports.
package load

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/cleaning"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/export"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Command creates and returns the load command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the latest cleaned exports into the database",
		Long: `Load finds the newest cleaned surveillance and specimen CSV files in the
exports directory, re-applies the cleaning rules and replaces both
database tables in a single transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), settings, cmd.OutOrStdout())
		},
	}

	return cmd
}

// Execute reloads the store and verifies the resulting row counts.
func Execute(ctx context.Context, settings *conf.Settings, out io.Writer) error {
	log := cmdutil.Logger("load")
	dir := settings.Paths.Exports

	sessionsFrame, sessionsPath, err := export.ReadLatest(dir, export.PrefixCleanedSurveillance)
	if err != nil {
		return err
	}
	specimensFrame, specimensPath, err := export.ReadLatest(dir, export.PrefixCleanedSpecimens)
	if err != nil {
		return err
	}
	log.Info("loading cleaned exports",
		logger.String("surveillance", sessionsPath),
		logger.String("specimens", specimensPath))

	c := cleaning.New(log)
	sessions := c.CleanSurveillance(sessionsFrame)
	specimens := c.CleanSpecimens(specimensFrame)

	store, err := cmdutil.OpenStore(settings, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()

	if _, err := store.ReplaceAll(ctx, sessions, specimens); err != nil {
		return err
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	want := datastore.TableCounts{Sessions: int64(sessions.Len()), Specimens: int64(specimens.Len())}
	if counts != want {
		return errors.Newf("row count mismatch after load: stored %d sessions and %d specimens, expected %d and %d",
			counts.Sessions, counts.Specimens, want.Sessions, want.Specimens).
			Component("cli").
			Category(errors.CategoryDatabase).
			Build()
	}

	_, _ = fmt.Fprintf(out, "loaded %d surveillance sessions from %s\n", counts.Sessions, sessionsPath)
	_, _ = fmt.Fprintf(out, "loaded %d specimens from %s\n", counts.Specimens, specimensPath)
	return nil
}
