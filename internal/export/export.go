// Package export writes the cleaned tables and the per-house report as
// dated CSV files, and finds the newest export of each kind.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// File name prefixes. Every export is named <prefix>_YYYY-MM-DD.csv.
const (
	PrefixCleanedSurveillance = "cleaned_surveillance"
	PrefixCleanedSpecimens    = "cleaned_specimens"
	PrefixReport              = "vectorcam_report"
)

// Writer writes exports into one directory.
type Writer struct {
	dir string
	log logger.Logger
	now func() time.Time
}

// NewWriter returns a writer for dir. A nil log discards output.
func NewWriter(dir string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	return &Writer{dir: dir, log: log.Module("export"), now: time.Now}
}

// Dir returns the export directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the dated file path for prefix.
func (w *Writer) Path(prefix string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", prefix, w.now().Format(time.DateOnly)))
}

// Write writes f as today's export for prefix and returns the path. An
// export from earlier the same day is overwritten.
func (w *Writer) Write(prefix string, f *dataset.Frame) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("operation", "create_export_dir").
			Context("dir", w.dir).
			Build()
	}

	path := w.Path(prefix)
	if err := f.WriteCSVFile(path); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}

	w.log.Info("exported",
		logger.String("file", filepath.Base(path)),
		logger.Int("rows", f.Len()),
		logger.Int("columns", f.Width()))
	return path, nil
}

// Latest returns the most recently modified <prefix>_*.csv in dir.
func Latest(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.csv"))
	if err != nil {
		return "", errors.New(err).Component("export").Category(errors.CategoryFileIO).Build()
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(latestAt) {
			latest, latestAt = m, info.ModTime()
		}
	}
	if latest == "" {
		return "", errors.Newf("no %s export found in %s", prefix, dir).
			Component("export").
			Category(errors.CategoryNotFound).
			Context("prefix", prefix).
			Context("dir", dir).
			Build()
	}
	return latest, nil
}

// ReadLatest loads the most recently modified export for prefix.
func ReadLatest(dir, prefix string) (*dataset.Frame, string, error) {
	path, err := Latest(dir, prefix)
	if err != nil {
		return nil, "", err
	}
	f, err := dataset.ReadCSVFile(path)
	if err != nil {
		return nil, "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileParsing).
			FileContext(path, 0).
			Build()
	}
	return f, path, nil
}
