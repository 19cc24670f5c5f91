package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/dataset"
)

func TestDecodeSessions(t *testing.T) {
	t.Parallel()

	f := dataset.New("SessionID", "SessionCollectionDate", "NumPeopleSleptInHouse", "SiteDistrict", "GPS")
	f.Append([]string{"12.0", "2024-03-05", "4", "Kampala", "0.3,32.5"})
	f.Append([]string{"nan", "not a date", "x", "", ""})

	tbl := Decode(SessionSchema, f)
	require.Equal(t, 2, tbl.Len())

	first := tbl.Rows[0]
	require.NotNil(t, first.SessionID)
	assert.Equal(t, int64(12), *first.SessionID)
	require.NotNil(t, first.SessionCollectionDate)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *first.SessionCollectionDate)
	require.NotNil(t, first.NumPeopleSleptInHouse)
	assert.InDelta(t, 4.0, *first.NumPeopleSleptInHouse, 1e-9)
	assert.Equal(t, "Kampala", first.SiteDistrict)
	assert.Equal(t, "0.3,32.5", first.Extra["GPS"])

	second := tbl.Rows[1]
	assert.Nil(t, second.SessionID)
	assert.Nil(t, second.SessionCollectionDate)
	assert.Nil(t, second.NumPeopleSleptInHouse)
	assert.Empty(t, second.SiteDistrict)

	// input frame is untouched
	assert.Equal(t, "12.0", f.Records[0][0])
}

func TestTablePresence(t *testing.T) {
	t.Parallel()

	f := dataset.New("SpecimenID", "Species", "Notes")
	f.Append([]string{"S1", "Culex", "wing damaged"})
	tbl := Decode(SpecimenSchema, f)

	assert.True(t, tbl.Has("Species"))
	assert.False(t, tbl.Has("Sex"))
	assert.False(t, tbl.Has("SpeciesGroup"))

	tbl.MarkDerived("SpeciesGroup", "DataQualityFlag", "Sex")
	assert.True(t, tbl.Has("SpeciesGroup"))
	assert.False(t, tbl.Has("Sex"), "source columns cannot be marked derived")
	assert.False(t, tbl.Has("IsFed"))

	cols := tbl.Columns()
	assert.Equal(t, []string{"SpecimenID", "Species", "Notes", "SpeciesGroup", "DataQualityFlag"}, cols)
}

func TestDecodeRaggedRecords(t *testing.T) {
	t.Parallel()

	f := dataset.New("SpecimenID", "Species")
	f.Records = [][]string{
		{"S1", "Culex", "stray", "cells"},
		{"S2"},
	}
	tbl := Decode(SpecimenSchema, f)

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Culex", tbl.Rows[0].Species)
	assert.Empty(t, tbl.Rows[0].Extra)
	assert.Equal(t, "S2", tbl.Rows[1].SpecimenID)
	assert.Empty(t, tbl.Rows[1].Species)
}

func TestTableFrame(t *testing.T) {
	t.Parallel()

	f := dataset.New("SpecimenID", "SessionID", "CapturedAt", "Notes", "IsFed")
	f.Append([]string{"S1", "3", "2024-01-02 10:30:00", "note", "True"})
	tbl := Decode(SpecimenSchema, f)
	tbl.Rows[0].SpeciesGroup = "Culex (nuisance)"
	tbl.MarkDerived("SpeciesGroup", "IsFed", "IsUnfed")

	out := tbl.Frame()
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "S1", out.Get(0, "SpecimenID"))
	assert.Equal(t, "3", out.Get(0, "SessionID"))
	assert.Equal(t, "2024-01-02 10:30:00", out.Get(0, "CapturedAt"))
	assert.Equal(t, "note", out.Get(0, "Notes"))
	assert.Equal(t, "True", out.Get(0, "IsFed"))
	assert.Equal(t, "False", out.Get(0, "IsUnfed"))
	assert.Equal(t, "Culex (nuisance)", out.Get(0, "SpeciesGroup"))

	// source position of a derived column is kept
	assert.Equal(t, 4, out.Index("IsFed"))
}

func TestSchemaFills(t *testing.T) {
	t.Parallel()

	tests := []struct {
		column string
		fill   string
	}{
		{"WasIrsConducted", FillUnknown},
		{"LlinType", FillUnknown},
		{"SessionSpecimenCondition", FillUnknown},
		{"SessionNotes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			t.Parallel()
			c, ok := SessionSchema.Lookup(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.fill, c.Fill)
		})
	}

	_, ok := SpecimenSchema.Lookup("NoSuchColumn")
	assert.False(t, ok)
}
