// Package summary renders the human-readable run summary written next to
// the pipeline log.
package summary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/metrics"
)

const (
	title      = "VectorInsight Pipeline Summary Report"
	topSpecies = 10
	ruleWidth  = 80
)

var titleCaser = cases.Title(language.English)

// Humanize turns a metric key such as "total_collections" into a label
// such as "Total Collections".
func Humanize(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// Report carries what the summary needs besides the metrics bundle.
type Report struct {
	Generated time.Time
	RunID     string
	Bundle    *metrics.Bundle
}

// Render writes the report to w.
func (r Report) Render(w io.Writer) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.Generated.Format(time.DateTime))
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", r.RunID)
	}
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n")

	bundle := r.Bundle
	if bundle == nil {
		bundle = &metrics.Bundle{}
	}

	section(&b, "SUMMARY STATISTICS", summaryTable(bundle.Summary))
	section(&b, fmt.Sprintf("SPECIES COMPOSITION (Top %d)", topSpecies),
		countsTable("Species", bundle.Species.SpeciesCounts, topSpecies))
	section(&b, "COLLECTION METHODS",
		countsTable("Method", bundle.CollectionMethods.CollectionsByMethod, 0))

	density := newTable("Measure", "Value")
	density.AppendRow(table.Row{"Average mosquitoes per house", fmt.Sprintf("%.2f", bundle.IndoorDensity.AvgMosquitoesPerHouse)})
	density.AppendRow(table.Row{"Average Anopheles per house", fmt.Sprintf("%.2f", bundle.IndoorDensity.AvgAnophelesPerHouse)})
	section(&b, "INDOOR RESTING DENSITY (PSC)", density)

	coverage := newTable("Intervention", "Rate")
	coverage.AppendRow(table.Row{"IRS Coverage Rate", fmt.Sprintf("%.1f%%", bundle.Interventions.IRSRatePercent)})
	coverage.AppendRow(table.Row{"LLIN Usage Rate", fmt.Sprintf("%.1f%%", bundle.Interventions.AvgLLINUsageRate)})
	section(&b, "INTERVENTION COVERAGE", coverage)

	_, err := io.WriteString(w, b.String())
	return err
}

// Write renders the report to summary_report_YYYYMMDD_HHMMSS.txt in dir and
// returns the path.
func (r Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Component("summary").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}
	path := filepath.Join(dir, fmt.Sprintf("summary_report_%s.txt", r.Generated.Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.FileError(err, path, 0)
	}
	if err := r.Render(f); err != nil {
		_ = f.Close()
		return "", errors.FileError(err, path, 0)
	}
	if err := f.Close(); err != nil {
		return "", errors.FileError(err, path, 0)
	}
	return path, nil
}

func section(b *strings.Builder, heading string, t table.Writer) {
	b.WriteString("\n" + heading + "\n")
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
}

func newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return t
}

func summaryTable(s metrics.Summary) table.Writer {
	t := newTable("Metric", "Value")
	for _, nv := range s.Numeric() {
		t.AppendRow(table.Row{Humanize(nv.Name), fmt.Sprintf("%g", nv.Value)})
	}
	t.AppendRow(table.Row{Humanize("date_range"), dateRange(s.DateRange)})
	t.AppendRow(table.Row{Humanize("countries"), strings.Join(s.Countries, ", ")})
	return t
}

func dateRange(d metrics.DateRange) string {
	if d.Start == "" && d.End == "" {
		return "n/a"
	}
	return d.Start + " to " + d.End
}

// countsTable lists counts by descending count. A positive limit keeps only
// the first entries.
func countsTable(label string, c metrics.Counts, limit int) table.Writer {
	t := newTable(label, "Count")
	entries := c.Sorted()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		t.AppendRow(table.Row{e.Key, e.Count})
	}
	return t
}
