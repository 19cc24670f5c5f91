package species

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"ANOPHELES GAMBIAE", AnophelesGambiae},
		{"anopheles gambiae", AnophelesGambiae},
		{"Anopheles Funestus", AnophelesFunestus},
		{"anopheles other", AnophelesOther},
		{"culex ", Culex},
		{"  CULEX", Culex},
		{"mansonia", Mansonia},
		{"AEDES", Aedes},
		{"non mosquito", NonMosquito},
		{"NON-MOSQUITO", NonMosquito},
		{"UNKNOWN", Unknown},
		{"  ", Unknown},
		{"", Unknown},
		{"nan", Unknown},
		{"None", Unknown},
		{"null", Unknown},
		{"Anopheles arabiensis", "Anopheles arabiensis"},
		{"N/A", NotApplicable},
		{"Culex quinquefasciatus ", "Culex quinquefasciatus"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " ", "nan", "ANOPHELES GAMBIAE", "culex ", "Non mosquito", "Anopheles Coustani", "N/A", "UNKNOWN", "weird  label "}
	for raw := range variants {
		inputs = append(inputs, raw)
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Group
	}{
		{"", GroupUnknown},
		{"N/A", GroupUnknown},
		{"Unknown", GroupUnknown},
		{"Anopheles gambiae", GroupGambiae},
		{"An. gambiae s.l.", GroupGambiae},
		{"Anopheles funestus", GroupFunestus},
		{"Anopheles arabiensis", GroupArabiensis},
		{"Anopheles other", GroupOtherAnopheles},
		{"Culex", GroupCulex},
		{"Aedes aegypti", GroupAedes},
		{"Non-Mosquito", GroupNonMosquito},
		{"non mosquito", GroupNonMosquito},
		{"Mansonia", GroupOther},
		{"Toxorhynchites", GroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Categorize(tt.in))
		})
	}
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAnopheles("Anopheles gambiae"))
	assert.True(t, IsAnopheles("ANOPHELES other"))
	assert.False(t, IsAnopheles("Culex"))

	assert.True(t, IsUnidentified("N/A"))
	assert.True(t, IsUnidentified("Unknown"))
	assert.False(t, IsUnidentified("Culex"))
}
