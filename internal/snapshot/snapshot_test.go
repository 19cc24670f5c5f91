package snapshot

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/errors"
)

func sample() *dataset.Frame {
	f := dataset.New("SessionID", "SiteDistrict", "Notes")
	f.Append([]string{"1", "Kasese", ""})
	f.Append([]string{"2", "Tororo", "line one\nline two, quoted \"x\""})
	return f
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, TableSurveillance, sample(), time.Now()))

	got, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sample().Records, got.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, sample().Header, got.Header)
	assert.Equal(t, "Tororo", got.Get(1, "SiteDistrict"), "index rebuilt on decode")
}

func TestEncodeEmptyFrame(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, TableSpecimens, dataset.New("SpecimenID"), time.Now()))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"SpecimenID"}, got.Header)
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()
	_, err := Decode(bytes.NewReader([]byte("not a snapshot")))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func encodeRaw(t *testing.T, enc encoded) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(zw).Encode(&enc))
	require.NoError(t, zw.Close())
	return &buf
}

func TestDecodeCorruptShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		enc  encoded
	}{
		{
			name: "negative row count",
			enc:  encoded{Version: formatVersion, Header: []string{"SessionID"}, Rows: -1, Columns: [][]string{{}}},
		},
		{
			name: "rows without columns",
			enc:  encoded{Version: formatVersion, Rows: 1 << 40},
		},
		{
			name: "short column",
			enc:  encoded{Version: formatVersion, Header: []string{"SessionID", "SiteDistrict"}, Rows: 2, Columns: [][]string{{"1", "2"}, {"Kasese"}}},
		},
		{
			name: "missing column",
			enc:  encoded{Version: formatVersion, Header: []string{"SessionID", "SiteDistrict"}, Rows: 1, Columns: [][]string{{"1"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(encodeRaw(t, tt.enc))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing), "got %v", err)
		})
	}
}

func TestSaveWritesMonthlyAndBackup(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "raw")
	c := New(dir, nil)
	c.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	saved, err := c.Save(TableSurveillance, sample())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "surveillance_2024_03.vcsnap"), saved.Monthly)
	assert.Equal(t, filepath.Join(dir, "surveillance_20240309_140506.vcsnap"), saved.Backup)
	assert.FileExists(t, saved.Monthly)
	assert.FileExists(t, saved.Backup)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestLoadLatestPicksNewestByModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(dir, nil)

	old := sample()
	c.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	first, err := c.Save(TableSpecimens, old)
	require.NoError(t, err)

	newer := dataset.New("SpecimenID")
	newer.Append([]string{"z"})
	c.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	second, err := c.Save(TableSpecimens, newer)
	require.NoError(t, err)

	// make the January files look older regardless of filesystem timestamp granularity
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(first.Monthly, past, past))
	require.NoError(t, os.Chtimes(first.Backup, past, past))

	f, path, err := c.LoadLatest(TableSpecimens)
	require.NoError(t, err)
	assert.Contains(t, []string{second.Monthly, second.Backup}, path)
	assert.Equal(t, "z", f.Get(0, "SpecimenID"))
}

func TestLoadLatestMissing(t *testing.T) {
	t.Parallel()

	c := New(t.TempDir(), nil)
	_, _, err := c.LoadLatest(TableSurveillance)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.vcsnap"))
	assert.True(t, errors.IsNotFound(err))
}
