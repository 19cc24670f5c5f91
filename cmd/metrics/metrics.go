// Package metrics provides the metrics command, which lists stored monthly
// metrics.
package metrics

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/cmdutil"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Command creates and returns the metrics command
func Command(settings *conf.Settings) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List stored monthly metrics",
		Long:  "Metrics prints the metrics stored by pipeline runs. Without --month every stored month is listed, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), settings, month, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to list (YYYY-MM)")
	return cmd
}

// Execute prints the metrics of month, or of every month when empty.
func Execute(ctx context.Context, settings *conf.Settings, month string, out io.Writer) error {
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return errors.New(err).
				Component("cli").
				Category(errors.CategoryValidation).
				Context("flag", "month").
				Context("value", month).
				Build()
		}
	}

	log := cmdutil.Logger("metrics")
	store, err := cmdutil.OpenStore(settings, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()

	rows, err := store.Metrics(ctx, month)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "no metrics stored")
		return nil
	}

	t := cmdutil.NewTable(out, "Month", "Category", "Metric", "Value", "Calculated")
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	for _, r := range rows {
		value := fmt.Sprintf("%g", r.MetricValue)
		if r.MetricJSON != "" {
			value = r.MetricJSON
		}
		t.AppendRow(table.Row{r.YearMonth, r.Category, r.MetricName, value, r.CalculatedAt.Format(time.DateTime)})
	}
	t.Render()
	return nil
}
