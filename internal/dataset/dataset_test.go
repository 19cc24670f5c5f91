package dataset

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := "\ufeffSessionID, SessionType ,SiteDistrict\n1,SURVEILLANCE,Kampala\n2,DATA_COLLECTION,\"Wakiso, North\"\n"
	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"SessionID", "SessionType", "SiteDistrict"}, f.Header)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 3, f.Width())
	assert.Equal(t, "Wakiso, North", f.Get(1, "SiteDistrict"))
	assert.True(t, f.Has("SessionType"))
	assert.False(t, f.Has("Missing"))
	assert.Equal(t, -1, f.Index("Missing"))

	v, ok := f.Value(0, "Missing")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err, "ragged rows are malformed")

	_, err = ReadCSV(strings.NewReader("a,b\n\"unterminated,2\n"))
	require.Error(t, err)
}

func TestFrameOperations(t *testing.T) {
	t.Parallel()

	f := New("id", "type")
	f.Append([]string{"1", "A"})
	f.Append([]string{"2"})
	f.Append([]string{"3", "A", "extra"})

	require.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"2", ""}, f.Records[1], "short records are padded")
	assert.Len(t, f.Records[2], 2, "long records are truncated")

	col, ok := f.Column("type")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "", "A"}, col)

	filtered := f.Filter(func(row int) bool { return f.Get(row, "type") == "A" })
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 3, f.Len(), "filter does not mutate the source")

	order, counts := f.ValueCounts("type")
	assert.Equal(t, []string{"A", ""}, order)
	assert.Equal(t, map[string]int{"A": 2, "": 1}, counts)

	clone := f.Clone()
	clone.Records[0][0] = "changed"
	assert.Equal(t, "1", f.Records[0][0])
}

func TestCSVFileRoundTrip(t *testing.T) {
	t.Parallel()

	f := New("Species", "Notes")
	f.Append([]string{"Anopheles gambiae", "line one\nline two"})
	f.Append([]string{"Culex", `quoted "value"`})

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, f.WriteCSVFile(path))

	back, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, f.Header, back.Header)
	assert.Equal(t, f.Records, back.Records)

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, New("a").WriteCSV(&buf))
	assert.Equal(t, "a\n", buf.String())
}

func TestParseInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12", 12, true},
		{" 7 ", 7, true},
		{"12.0", 12, true},
		{"-3", -3, true},
		{"12.5", 0, false},
		{"nan", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"inf", 0, false},
		{"1e3", 1000, true},
		{"9223372036854775807", math.MaxInt64, true},
		{"-9223372036854775808", math.MinInt64, true},
		{"-9.223372036854775808e18", math.MinInt64, true},
		{"9223372036854775808", 0, false},
		{"9.223372036854776e18", 0, false},
		{"-9.3e18", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFloat(t *testing.T) {
	t.Parallel()

	f, ok := ParseFloat("2.5")
	assert.True(t, ok)
	assert.InDelta(t, 2.5, f, 1e-9)

	for _, bad := range []string{"", "None", "NaN", "Inf", "-Inf", "x"} {
		_, ok := ParseFloat(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15T10:30:00.123Z", time.Date(2024, 3, 15, 10, 30, 0, 123000000, time.UTC)},
		{"2024-03-15T13:30:00+03:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTime(tt.in)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, ok := ParseTime("not a date")
	assert.False(t, ok)
	_, ok = ParseTime("NaT")
	assert.False(t, ok)
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-03-15", FormatTime(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-15 10:30:00", FormatTime(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2", FormatFloat(2.0))
	assert.Equal(t, "33.333333333333336", FormatFloat(100.0/3))
	assert.Equal(t, "-4", FormatInt(-4))
	assert.True(t, IsNull(" None "))
	assert.False(t, IsNull("0"))
}
