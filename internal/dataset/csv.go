package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

// ErrEmptyInput is returned by ReadCSV when the input has no header row.
var ErrEmptyInput = errors.NewStd("csv input is empty")

const utf8BOM = "\ufeff"

// ReadCSV parses a header row followed by records. Every record must have as
// many fields as the header.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		header[i] = strings.TrimSpace(name)
	}

	f := New(header...)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		f.Records = append(f.Records, rec)
	}

	return f, nil
}

// WriteCSV writes the header and every record.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(f.Records); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

// ReadCSVFile reads a frame from path.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return nil, errors.New(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("operation", "read_csv").
			Build()
	}
	defer file.Close()

	f, err := ReadCSV(file)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%s: %w", filepath.Base(path), err)).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_csv").
			Build()
	}
	return f, nil
}

// WriteCSVFile writes the frame to path, creating parent directories.
// The file is written to a temporary name and renamed into place.
func (f *Frame) WriteCSVFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileError(err, path, 0)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.FileError(err, path, 0)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	buf := bufio.NewWriter(tmp)
	if err := f.WriteCSV(buf); err != nil {
		tmp.Close()
		return errors.FileError(err, path, 0)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return errors.FileError(err, path, 0)
	}
	if err := tmp.Close(); err != nil {
		return errors.FileError(err, path, 0)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.FileError(err, path, 0)
	}
	return nil
}
