package cleaning

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/species"
)

func newTestCleaner(t *testing.T) (*Cleaner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC)), &buf
}

func TestCleanSurveillance(t *testing.T) {
	t.Parallel()
	c, buf := newTestCleaner(t)

	f := dataset.New("SessionID", "SessionCollectionDate", "NumPeopleSleptInHouse",
		"NumLlinsAvailable", "NumPeopleSleptUnderLlin", "WasIrsConducted", "LlinType", "Village")
	f.Append([]string{"1", "2024-05-17", "4", "2", "3", "Yes", "PermaNet", "Kasese"})
	f.Append([]string{"2", "garbage", "51", "", "", "", "", ""})
	f.Append([]string{"3", "2024-11-01", "8", "2", "10", "No", "", ""})
	f.Append([]string{"4", "", "0", "1", "1", "nan", "Olyset", ""})

	tbl := c.CleanSurveillance(f)
	require.Equal(t, f.Len(), tbl.Len(), "rows are never dropped")

	first := tbl.Rows[0]
	require.NotNil(t, first.CollectionYear)
	assert.Equal(t, int64(2024), *first.CollectionYear)
	assert.Equal(t, int64(5), *first.CollectionMonth)
	assert.Equal(t, "2024-05", first.CollectionYearMonth)
	assert.Equal(t, int64(2), *first.CollectionQuarter)
	assert.InDelta(t, 75.0, first.LlinUsageRate, 1e-9)
	assert.Equal(t, FlagOK, first.DataQualityFlag)
	assert.Equal(t, "Kasese", first.Extra["Village"])

	second := tbl.Rows[1]
	assert.Nil(t, second.SessionCollectionDate)
	assert.Nil(t, second.CollectionYear)
	assert.Empty(t, second.CollectionYearMonth)
	assert.Equal(t, "Unknown", second.WasIrsConducted)
	assert.Equal(t, "Unknown", second.LlinType)
	assert.Zero(t, second.LlinUsageRate)
	assert.Equal(t, FlagLargeHousehold, second.DataQualityFlag)

	assert.Equal(t, FlagMorePeopleThanNets, tbl.Rows[2].DataQualityFlag)
	assert.Equal(t, int64(4), *tbl.Rows[2].CollectionQuarter)

	// zero denominator
	assert.Zero(t, tbl.Rows[3].LlinUsageRate)
	assert.Equal(t, "Unknown", tbl.Rows[3].WasIrsConducted)

	// absent columns are not filled or added
	assert.False(t, tbl.Has("LlinBrand"))
	assert.Empty(t, first.LlinBrand)
	assert.True(t, tbl.Has("DataQualityFlag"))
	assert.True(t, tbl.Has("CollectionYearMonth"))
	assert.True(t, tbl.Has("LlinUsageRate"))

	// input untouched
	assert.Equal(t, "garbage", f.Get(1, "SessionCollectionDate"))
	assert.Contains(t, buf.String(), "cleaned surveillance records")
}

func TestSessionFlagOverride(t *testing.T) {
	t.Parallel()
	c, _ := newTestCleaner(t)

	f := dataset.New("NumPeopleSleptInHouse", "NumLlinsAvailable", "NumPeopleSleptUnderLlin")
	f.Append([]string{"60", "1", "10"})
	tbl := c.CleanSurveillance(f)
	assert.Equal(t, FlagLargeHousehold, tbl.Rows[0].DataQualityFlag)
}

func TestCleanSpecimens(t *testing.T) {
	t.Parallel()
	c, buf := newTestCleaner(t)

	f := dataset.New("SpecimenID", "SessionID", "Species", "Sex", "AbdomenStatus", "CapturedAt")
	f.Append([]string{"a", "1", "ANOPHELES GAMBIAE", "Female", "Gravid", "2024-02-03T08:00:00Z"})
	f.Append([]string{"b", "1", "culex ", "Male", "Unfed", ""})
	f.Append([]string{"c", "2", "", "", "", "2024-07-01"})
	f.Append([]string{"d", "2", "N/A", "N/A", "Half Gravid", ""})

	tbl := c.CleanSpecimens(f)
	require.Equal(t, 4, tbl.Len())

	a := tbl.Rows[0]
	assert.Equal(t, species.AnophelesGambiae, a.Species)
	assert.Equal(t, string(species.GroupGambiae), a.SpeciesGroup)
	assert.True(t, a.IsFed)
	assert.False(t, a.IsUnfed)
	assert.Equal(t, int64(1), *a.CaptureQuarter)
	assert.Equal(t, "2024-02", a.CaptureYearMonth)
	assert.Equal(t, FlagOK, a.DataQualityFlag)

	b := tbl.Rows[1]
	assert.Equal(t, species.Culex, b.Species)
	assert.True(t, b.IsUnfed)
	assert.False(t, b.IsFed)
	assert.Nil(t, b.CaptureYear)

	cc := tbl.Rows[2]
	assert.Equal(t, species.Unknown, cc.Species)
	assert.Equal(t, "Unknown", cc.Sex)
	assert.Equal(t, "Unknown", cc.AbdomenStatus)
	assert.Equal(t, FlagMissingSpeciesID, cc.DataQualityFlag)

	d := tbl.Rows[3]
	assert.Equal(t, FlagOK, d.DataQualityFlag, "N/A sex is not flagged")
	assert.True(t, d.IsFed)

	assert.Contains(t, buf.String(), "species distribution")
}

func TestCleanSpecimensWithoutSpeciesColumn(t *testing.T) {
	t.Parallel()
	c, _ := newTestCleaner(t)

	f := dataset.New("SpecimenID")
	f.Append([]string{"x"})
	tbl := c.CleanSpecimens(f)

	assert.True(t, tbl.Has("Species"))
	assert.Equal(t, species.Unknown, tbl.Rows[0].Species)
	assert.Equal(t, "Unknown", tbl.Frame().Get(0, "Species"))

	// derived columns only follow their source columns
	assert.Equal(t, []string{"SpecimenID", "Species", "SpeciesGroup", "DataQualityFlag"}, tbl.Columns())
}

func TestCleanEmptyFrames(t *testing.T) {
	t.Parallel()
	c, _ := newTestCleaner(t)

	assert.Equal(t, 0, c.CleanSurveillance(dataset.New("SessionID")).Len())
	assert.Equal(t, 0, c.CleanSpecimens(dataset.New("SpecimenID")).Len())
}

func TestFilterSurveillanceSessions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		column   string
		values   []string
		wantKept int
	}{
		{"canonical column", "SessionType", []string{"SURVEILLANCE", "DATA_COLLECTION", "SURVEILLANCE"}, 2},
		{"messy values", "session_type", []string{" surveillance ", "Surveillance", "data_collection"}, 2},
		{"camel column", "sessionType", []string{"DATA_COLLECTION"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, buf := newTestCleaner(t)

			f := dataset.New("SessionID", tt.column)
			for i, v := range tt.values {
				f.Append([]string{dataset.FormatInt(int64(i)), v})
			}

			out := c.FilterSurveillanceSessions(f)
			assert.Equal(t, tt.wantKept, out.Len())
			for r := range out.Len() {
				assert.Equal(t, SessionTypeSurveillance, out.Get(r, tt.column))
			}
			assert.Len(t, f.Records, len(tt.values), "input keeps all rows")
			if tt.wantKept == 0 {
				assert.Contains(t, buf.String(), "no SURVEILLANCE sessions")
			}
		})
	}
}

func TestFilterWithoutSessionType(t *testing.T) {
	t.Parallel()
	c, buf := newTestCleaner(t)

	f := dataset.New("SessionID")
	f.Append([]string{"1"})
	out := c.FilterSurveillanceSessions(f)

	assert.Same(t, f, out)
	assert.Contains(t, buf.String(), "no session type column")
}
