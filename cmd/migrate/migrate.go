// Package migrate provides the command that copies the store between the
// SQLite and MySQL engines.
package migrate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/fieldteam"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Options are the migrate command flags.
type Options struct {
	From    string
	To      string
	Confirm bool
}

// Command creates and returns the migrate command
func Command(settings *conf.Settings) *cobra.Command {
	opts := Options{From: conf.DatabaseSQLite, To: conf.DatabaseMySQL}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the database to the other engine",
		Long: `Migrate copies every table, including the field team tables, from one
configured database engine to the other. Rows already in the target are
replaced. Both engines are configured in the database section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), settings, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", opts.From, "Source engine (sqlite or mysql)")
	cmd.Flags().StringVar(&opts.To, "to", opts.To, "Target engine (sqlite or mysql)")
	cmd.Flags().BoolVar(&opts.Confirm, "yes", false, "Confirm replacing the target data")
	return cmd
}

func (o Options) validate() error {
	for _, engine := range []string{o.From, o.To} {
		if engine != conf.DatabaseSQLite && engine != conf.DatabaseMySQL {
			return errors.Newf("unknown database engine %q, must be %q or %q", engine, conf.DatabaseSQLite, conf.DatabaseMySQL).
				Component("cli").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	if o.From == o.To {
		return errors.Newf("source and target engine are both %s", o.From).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	if !o.Confirm {
		return errors.Newf("migrate replaces all data in the %s database, rerun with --yes to confirm", o.To).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Execute copies all tables from the source engine to the target engine.
func Execute(ctx context.Context, settings *conf.Settings, opts Options, out io.Writer) error {
	if err := opts.validate(); err != nil {
		return err
	}

	log := cmdutil.Logger("migrate")
	src, err := openEngine(ctx, settings, opts.From, log)
	if err != nil {
		return err
	}
	defer closeStore(src, log)

	dst, err := openEngine(ctx, settings, opts.To, log)
	if err != nil {
		return err
	}
	defer closeStore(dst, log)

	tables := append(datastore.Tables(), fieldteam.Tables()...)
	start := time.Now()
	stats, err := datastore.Transfer(ctx, src.Gorm(), dst.Gorm(), tables, settings.Database.BatchSize)
	if err != nil {
		return err
	}
	log.Info("database migrated",
		logger.String("from", opts.From),
		logger.String("to", opts.To),
		logger.Duration("duration", time.Since(start)))

	t := cmdutil.NewTable(out, "Table", "Source Rows", "Copied", "Duration")
	var total int64
	for _, s := range stats {
		t.AppendRow(table.Row{s.Table, s.Source, s.Copied, s.Duration.Round(time.Millisecond)})
		total += s.Copied
	}
	t.AppendFooter(table.Row{"Total", "", total, time.Since(start).Round(time.Millisecond)})
	t.Render()
	_, _ = fmt.Fprintf(out, "copied %d rows from %s to %s\n", total, opts.From, opts.To)
	return nil
}

// openEngine opens the store for engine, with the field team schema in place.
func openEngine(ctx context.Context, settings *conf.Settings, engine string, log logger.Logger) (datastore.Interface, error) {
	s := *settings
	s.Database.Type = engine
	store, err := cmdutil.OpenStore(&s, log, nil)
	if err != nil {
		return nil, err
	}
	if err := fieldteam.NewTracker(store.Gorm(), log).EnsureSchema(ctx); err != nil {
		closeStore(store, log)
		return nil, err
	}
	return store, nil
}

func closeStore(store datastore.Interface, log logger.Logger) {
	if err := store.Close(); err != nil {
		log.Warn("failed to close store", logger.Error(err))
	}
}
