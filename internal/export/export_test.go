package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/errors"
)

func frame() *dataset.Frame {
	f := dataset.New("SessionID", "SiteDistrict")
	f.Append([]string{"1", "Kasese"})
	return f
}

func TestWriteUsesDatedName(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "exports")
	w := NewWriter(dir, nil)
	w.now = func() time.Time { return time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC) }

	path, err := w.Write(PrefixReport, frame())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vectorcam_report_2024-03-09.csv"), path)

	back, err := dataset.ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, frame().Records, back.Records)
}

func TestWriteOverwritesSameDay(t *testing.T) {
	t.Parallel()

	w := NewWriter(t.TempDir(), nil)
	_, err := w.Write(PrefixCleanedSpecimens, frame())
	require.NoError(t, err)

	f := dataset.New("SpecimenID")
	path, err := w.Write(PrefixCleanedSpecimens, f)
	require.NoError(t, err)

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	back, err := dataset.ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SpecimenID"}, back.Header)
}

func TestLatestByModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir, nil)

	w.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	newerName, err := w.Write(PrefixCleanedSurveillance, frame())
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	olderName, err := w.Write(PrefixCleanedSurveillance, dataset.New("SessionID"))
	require.NoError(t, err)

	// the file with the later name date was touched earlier
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(olderName, past, past))

	got, err := Latest(dir, PrefixCleanedSurveillance)
	require.NoError(t, err)
	assert.Equal(t, newerName, got)

	f, path, err := ReadLatest(dir, PrefixCleanedSurveillance)
	require.NoError(t, err)
	assert.Equal(t, newerName, path)
	assert.Equal(t, 1, f.Len())
}

func TestLatestMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cleaned_specimens_notes.txt"), []byte("x"), 0o600))

	_, err := Latest(dir, PrefixCleanedSpecimens)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, _, err = ReadLatest(dir, PrefixCleanedSpecimens)
	assert.True(t, errors.IsNotFound(err))
}
