// Package species canonicalises free-text mosquito labels and classifies
// them into epidemiological groups.
package species

import (
	"strings"
)

// Canonical species labels
const (
	Unknown           = "Unknown"
	NonMosquito       = "Non-Mosquito"
	AnophelesGambiae  = "Anopheles gambiae"
	AnophelesFunestus = "Anopheles funestus"
	AnophelesOther    = "Anopheles other"
	Culex             = "Culex"
	Mansonia          = "Mansonia"
	Aedes             = "Aedes"

	// NotApplicable is written by field teams when no identification was attempted.
	NotApplicable = "N/A"
)

// variants maps known spellings to their canonical label. Matching is exact
// after trimming.
var variants = map[string]string{
	"non-mosquito": NonMosquito,
	"non mosquito": NonMosquito,
	"Non mosquito": NonMosquito,
	"non-Mosquito": NonMosquito,
	"NON-MOSQUITO": NonMosquito,
	"NON MOSQUITO": NonMosquito,

	"unknown": Unknown,
	"UNKNOWN": Unknown,

	"anopheles gambiae": AnophelesGambiae,
	"Anopheles Gambiae": AnophelesGambiae,
	"ANOPHELES GAMBIAE": AnophelesGambiae,

	"anopheles funestus": AnophelesFunestus,
	"Anopheles Funestus": AnophelesFunestus,
	"ANOPHELES FUNESTUS": AnophelesFunestus,

	"anopheles other": AnophelesOther,
	"Anopheles Other":  AnophelesOther,
	"ANOPHELES OTHER":  AnophelesOther,

	"culex": Culex,
	"CULEX": Culex,

	"mansonia": Mansonia,
	"MANSONIA": Mansonia,

	"aedes": Aedes,
	"AEDES": Aedes,
}

// emptyEquivalents are values that carry no identification.
var emptyEquivalents = map[string]struct{}{
	"":     {},
	"nan":  {},
	"None": {},
	"null": {},
}

// Normalize returns the canonical label for raw. Unrecognised values are
// returned trimmed but otherwise unchanged. Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if canonical, ok := variants[s]; ok {
		return canonical
	}
	if _, empty := emptyEquivalents[s]; empty {
		return Unknown
	}
	return s
}

// Group is an epidemiological species group.
type Group string

const (
	GroupUnknown        Group = "Unknown"
	GroupGambiae        Group = "Anopheles gambiae complex"
	GroupFunestus       Group = "Anopheles funestus group"
	GroupArabiensis     Group = "Anopheles arabiensis"
	GroupOtherAnopheles Group = "Other Anopheles"
	GroupCulex          Group = "Culex (nuisance)"
	GroupAedes          Group = "Aedes (arbovirus vector)"
	GroupNonMosquito    Group = "Non-mosquito"
	GroupOther          Group = "Other"
)

// rule matches a lowercase substring to a group. Order matters: the first
// matching rule wins, so "gambiae" is tested before the generic "anopheles".
type rule struct {
	substrings []string
	group      Group
}

var rules = []rule{
	{[]string{"gambiae"}, GroupGambiae},
	{[]string{"funestus"}, GroupFunestus},
	{[]string{"arabiensis"}, GroupArabiensis},
	{[]string{"anopheles"}, GroupOtherAnopheles},
	{[]string{"culex"}, GroupCulex},
	{[]string{"aedes"}, GroupAedes},
	{[]string{"non-mosquito", "non mosquito"}, GroupNonMosquito},
}

// Categorize maps a species label to its group.
func Categorize(label string) Group {
	s := strings.TrimSpace(label)
	if s == "" || s == NotApplicable || s == Unknown {
		return GroupUnknown
	}

	lower := strings.ToLower(s)
	for _, r := range rules {
		for _, sub := range r.substrings {
			if strings.Contains(lower, sub) {
				return r.group
			}
		}
	}
	return GroupOther
}

// IsAnopheles reports whether the label names an Anopheles species.
func IsAnopheles(label string) bool {
	return strings.Contains(strings.ToLower(label), "anopheles")
}

// IsUnidentified reports whether the label carries no usable identification.
func IsUnidentified(label string) bool {
	return label == NotApplicable || label == Unknown
}
