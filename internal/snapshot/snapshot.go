// Package snapshot caches raw export frames on disk so a run can skip
// extraction. A snapshot is a gob-encoded columnar frame compressed with
// zstd.
//
// Every save writes two files under the cache directory:
//
//	<table>_YYYY_MM.vcsnap          monthly snapshot, overwritten within a month
//	<table>_YYYYMMDD_HHMMSS.vcsnap  timestamped backup
package snapshot

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// Extension is the file extension of snapshot files.
const Extension = ".vcsnap"

// formatVersion is bumped when the encoded layout changes.
const formatVersion = 1

// Table names used for the two exports.
const (
	TableSurveillance = "surveillance"
	TableSpecimens    = "specimens"
)

// encoded is the on-disk layout. Cells are stored column by column, which
// compresses better than row order for repetitive categorical data.
type encoded struct {
	Version   int
	Table     string
	CreatedAt time.Time
	Header    []string
	Rows      int
	Columns   [][]string
}

// Cache reads and writes snapshots in one directory.
type Cache struct {
	dir string
	log logger.Logger
	now func() time.Time
}

// New returns a cache rooted at dir.
func New(dir string, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	return &Cache{dir: dir, log: log.Module("snapshot"), now: time.Now}
}

// Saved lists the files written by Save.
type Saved struct {
	Monthly string
	Backup  string
}

// Save writes f as the monthly snapshot and as a timestamped backup of table.
func (c *Cache) Save(table string, f *dataset.Frame) (Saved, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return Saved{}, errors.New(err).
			Component("snapshot").
			Category(errors.CategoryFileIO).
			Context("operation", "create_cache_dir").
			Context("dir", c.dir).
			Build()
	}

	now := c.now()
	saved := Saved{
		Monthly: filepath.Join(c.dir, fmt.Sprintf("%s_%s%s", table, now.Format("2006_01"), Extension)),
		Backup:  filepath.Join(c.dir, fmt.Sprintf("%s_%s%s", table, now.Format("20060102_150405"), Extension)),
	}
	for _, path := range []string{saved.Monthly, saved.Backup} {
		if err := writeFile(path, table, f, now); err != nil {
			return Saved{}, err
		}
	}

	c.log.Info("saved snapshot",
		logger.String("table", table),
		logger.Int("rows", f.Len()),
		logger.String("path", saved.Monthly))
	return saved, nil
}

// LoadLatest reads the most recently modified snapshot of table.
func (c *Cache) LoadLatest(table string) (*dataset.Frame, string, error) {
	path, err := c.Latest(table)
	if err != nil {
		return nil, "", err
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	c.log.Info("loaded snapshot",
		logger.String("table", table),
		logger.Int("rows", f.Len()),
		logger.String("path", path))
	return f, path, nil
}

// Latest returns the path of the most recently modified snapshot of table.
func (c *Cache) Latest(table string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, table+"_*"+Extension))
	if err != nil {
		return "", errors.New(err).Component("snapshot").Category(errors.CategoryFileIO).Build()
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
		return "", errors.Newf("no cached %s snapshot in %s", table, c.dir).
			Component("snapshot").
			Category(errors.CategoryNotFound).
			Context("table", table).
			Context("dir", c.dir).
			Build()
	}
	return latest, nil
}

func writeFile(path, table string, f *dataset.Frame, now time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.FileError(err, path, 0)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := Encode(tmp, table, f, now); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.FileError(err, tmpName, 0)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.FileError(err, path, 0)
	}
	return nil
}

// Encode writes f to w in snapshot format.
func Encode(w io.Writer, table string, f *dataset.Frame, createdAt time.Time) error {
	enc := encoded{
		Version:   formatVersion,
		Table:     table,
		CreatedAt: createdAt.UTC(),
		Header:    f.Header,
		Rows:      f.Len(),
		Columns:   make([][]string, len(f.Header)),
	}
	for j := range f.Header {
		col := make([]string, len(f.Records))
		for i, rec := range f.Records {
			col[i] = rec[j]
		}
		enc.Columns[j] = col
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return encodeError(err, table)
	}
	if err := gob.NewEncoder(zw).Encode(&enc); err != nil {
		_ = zw.Close()
		return encodeError(err, table)
	}
	if err := zw.Close(); err != nil {
		return encodeError(err, table)
	}
	return nil
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*dataset.Frame, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, decodeError(err)
	}
	defer zr.Close()

	var enc encoded
	if err := gob.NewDecoder(zr).Decode(&enc); err != nil {
		return nil, decodeError(err)
	}
	if enc.Version != formatVersion {
		return nil, decodeError(fmt.Errorf("unsupported snapshot version %d", enc.Version))
	}
	if len(enc.Columns) != len(enc.Header) {
		return nil, decodeError(fmt.Errorf("snapshot has %d columns for %d header names", len(enc.Columns), len(enc.Header)))
	}

	// rows are only backed by column cells, so a header-less snapshot is empty
	if enc.Rows < 0 || (len(enc.Header) == 0 && enc.Rows != 0) {
		return nil, decodeError(fmt.Errorf("invalid row count %d for %d columns", enc.Rows, len(enc.Header)))
	}
	for j, col := range enc.Columns {
		if len(col) != enc.Rows {
			return nil, decodeError(fmt.Errorf("column %q has %d cells, want %d", enc.Header[j], len(col), enc.Rows))
		}
	}

	f := dataset.New(enc.Header...)
	f.Records = make([][]string, enc.Rows)
	for i := range enc.Rows {
		rec := make([]string, len(enc.Header))
		for j, col := range enc.Columns {
			rec[j] = col[i]
		}
		f.Records[i] = rec
	}
	return f, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(err).Component("snapshot").Category(errors.CategoryNotFound).Context("path", path).Build()
		}
		return nil, errors.FileError(err, path, 0)
	}
	defer func() { _ = file.Close() }()

	f, err := Decode(file)
	if err != nil {
		return nil, errors.New(err).Component("snapshot").Category(errors.CategoryFileParsing).Context("path", path).Build()
	}
	return f, nil
}

func encodeError(err error, table string) error {
	return errors.New(err).
		Component("snapshot").
		Category(errors.CategoryFileIO).
		Context("operation", "encode").
		Context("table", table).
		Build()
}

func decodeError(err error) error {
	return errors.New(err).
		Component("snapshot").
		Category(errors.CategoryFileParsing).
		Context("operation", "decode").
		Build()
}
