// Package run provides the run command, which executes the full pipeline.
package run

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/extract"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/observability"
	"github.com/vectorcam/vectorinsight/internal/pipeline"
)

// Command creates and returns the run command
func Command(settings *conf.Settings) *cobra.Command {
	var skip bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full processing pipeline",
		Long: `Run extracts the surveillance and specimen exports, cleans and merges them,
loads the database, writes the CSV exports and the summary report,
and stores this month's metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), Params{
				Settings:       settings,
				SkipExtraction: skip,
				Out:            cmd.OutOrStdout(),
			})
		},
	}

	AddFlags(cmd, &skip)
	return cmd
}

// AddFlags registers the pipeline flags on cmd.
func AddFlags(cmd *cobra.Command, skip *bool) {
	cmd.Flags().BoolVar(skip, "skip-extraction", false, "Use the latest cached snapshots instead of calling the API")
}

// Params configure Execute.
type Params struct {
	Settings       *conf.Settings
	SkipExtraction bool
	Out            io.Writer
	// ExtractOptions customize the API client, for tests.
	ExtractOptions []extract.Option
}

// Execute runs the pipeline once and prints the result.
func Execute(ctx context.Context, p Params) error {
	settings := p.Settings
	if !p.SkipExtraction && !settings.HasAPIKey() {
		return errors.New(extract.ErrNoAPIKey).
			Component("cli").
			Category(errors.CategoryConfiguration).
			Context("hint", "set API_SECRET_KEY or use --skip-extraction").
			Build()
	}

	log := cmdutil.Logger("pipeline")

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	store, err := cmdutil.OpenStore(settings, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()

	cfg := pipeline.Config{Settings: settings, Store: store, Metrics: m, Log: log}
	if !p.SkipExtraction {
		client, err := extract.New(settings, log, m.Extract, p.ExtractOptions...)
		if err != nil {
			return err
		}
		defer client.Close()
		cfg.Source = client
	}

	res, err := pipeline.New(cfg).Run(ctx, pipeline.Options{SkipExtraction: p.SkipExtraction})
	if err != nil {
		return err
	}
	printResult(p.Out, res)
	return nil
}

func printResult(w io.Writer, res *pipeline.Result) {
	if w == nil {
		return
	}
	t := cmdutil.NewTable(w, "Item", "Value")
	t.AppendRows([]table.Row{
		{"Run ID", res.RunID},
		{"Surveillance sessions", res.Sessions},
		{"Specimens", res.Specimens},
		{"Merged rows", res.Merged},
		{"Report rows", res.ReportRows},
		{"Stored sessions", res.Stored.Sessions},
		{"Stored specimens", res.Stored.Specimens},
		{"Metrics stored", res.Metrics},
		{"Duration", res.Duration.Round(time.Millisecond)},
	})
	if res.FieldTeam != nil {
		t.AppendRow(table.Row{"Collectors registered", res.FieldTeam.Registered})
		t.AppendRow(table.Row{"Submission logs", res.FieldTeam.Logs})
	}
	t.Render()

	files := res.Files
	for _, path := range []string{files.CleanedSurveillance, files.CleanedSpecimens, files.Report, files.Summary} {
		if path != "" {
			_, _ = fmt.Fprintf(w, "wrote %s\n", path)
		}
	}
}
