// Package cmdutil holds helpers shared by the subcommands.
package cmdutil

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/observability"
)

// Logger returns a module logger from the central logger.
func Logger(module string) logger.Logger {
	return logger.Global().Module(module)
}

// OpenStore opens the configured store. m may be nil.
func OpenStore(settings *conf.Settings, log logger.Logger, m *observability.Metrics) (datastore.Interface, error) {
	store := datastore.New(settings, log)
	if m != nil {
		store.SetMetrics(m.Datastore)
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewTable returns a table writer rendering to w.
func NewTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

// ParseDate parses a YYYY-MM-DD flag value. An empty value yields nil.
func ParseDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryValidation).
			Context("flag", flag).
			Context("value", value).
			Build()
	}
	return &d, nil
}

// FormatDate formats an optional date, printing "-" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// FormatDays prints an optional day count, "-" for nil.
func FormatDays(d *int) any {
	if d == nil {
		return "-"
	}
	return *d
}
