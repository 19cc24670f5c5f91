package metrics

import (
	"cmp"
	"slices"
)

// Counts maps a category value to the number of rows holding it.
type Counts map[string]int

// Entry is one value of a Counts map.
type Entry struct {
	Key   string
	Count int
}

// Sorted returns the entries by descending count, ties broken by key.
func (c Counts) Sorted() []Entry {
	out := make([]Entry, 0, len(c))
	for k, n := range c {
		out = append(out, Entry{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if d := cmp.Compare(b.Count, a.Count); d != 0 {
			return d
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Crosstab is a zero-filled two-way count table keyed outer -> inner.
type Crosstab map[string]Counts

// Rates maps a category value to a rate or mean.
type Rates map[string]float64

// Bundle is the full set of metrics computed for one run.
type Bundle struct {
	Summary           Summary           `json:"summary"`
	Temporal          Temporal          `json:"temporal"`
	Species           Species           `json:"species"`
	CollectionMethods CollectionMethods `json:"collection_methods"`
	Interventions     Interventions     `json:"interventions"`
	BloodFeeding      BloodFeeding      `json:"blood_feeding"`
	IndoorDensity     IndoorDensity     `json:"indoor_density"`
	Geographic        Geographic        `json:"geographic"`
	DataQuality       DataQuality       `json:"data_quality"`
	// Exposure is nil when no merged table was supplied.
	Exposure *Exposure `json:"exposure,omitempty"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Summary struct {
	TotalCollections int       `json:"total_collections"`
	TotalSpecimens   int       `json:"total_specimens"`
	DateRange        DateRange `json:"date_range"`
	UniqueSites      int       `json:"unique_sites"`
	UniqueCollectors int       `json:"unique_collectors"`
	Countries        []string  `json:"countries"`
}

type Temporal struct {
	CollectionsByMonth   Counts `json:"collections_by_month"`
	SpecimensByMonth     Counts `json:"specimens_by_month"`
	CollectionsByQuarter Counts `json:"collections_by_quarter"`
}

type Species struct {
	SpeciesCounts       Counts   `json:"species_counts"`
	SpeciesGroups       Counts   `json:"species_groups"`
	AnophelesCounts     Counts   `json:"anopheles_counts"`
	AnophelesSexRatio   Counts   `json:"anopheles_sex_ratio"`
	SpeciesByMonth      Crosstab `json:"species_by_month"`
	TotalAnopheles      int      `json:"total_anopheles"`
	AnophelesPercentage float64  `json:"anopheles_percentage"`
}

type CollectionMethods struct {
	CollectionsByMethod    Counts   `json:"collections_by_method"`
	SpecimensByMethod      Counts   `json:"specimens_by_method"`
	SpecimensPerCollection Rates    `json:"specimens_per_collection"`
	SpeciesByMethod        Crosstab `json:"species_by_method"`
}

type LLINCoverage struct {
	TotalLLINs       float64 `json:"total_llins"`
	AvgLLINsPerHouse float64 `json:"avg_llins_per_house"`
	HousesWithLLINs  int     `json:"houses_with_llins"`
}

type Interventions struct {
	IRSCoverage      Counts       `json:"irs_coverage"`
	IRSRatePercent   float64      `json:"irs_rate_percent"`
	LLINCoverage     LLINCoverage `json:"llin_coverage"`
	AvgLLINUsageRate float64      `json:"avg_llin_usage_rate"`
	LLINTypes        Counts       `json:"llin_types"`
	LLINBrands       Counts       `json:"llin_brands"`
}

type BloodFeeding struct {
	OverallFeedingStatus   Counts   `json:"overall_feeding_status"`
	AnophelesFeedingStatus Counts   `json:"anopheles_feeding_status"`
	OverallFeedingRate     float64  `json:"overall_feeding_rate"`
	AnophelesFeedingRate   float64  `json:"anopheles_feeding_rate"`
	FeedingBySpecies       Crosstab `json:"feeding_by_species"`
}

type IndoorDensity struct {
	TotalPSCCollections   int     `json:"total_psc_collections"`
	AvgMosquitoesPerHouse float64 `json:"avg_mosquitoes_per_house"`
	AvgAnophelesPerHouse  float64 `json:"avg_anopheles_per_house"`
	DensityByDistrict     Rates   `json:"density_by_district,omitempty"`
	DensityByMonth        Rates   `json:"density_by_month,omitempty"`
}

type Geographic struct {
	CollectionsByDistrict Counts   `json:"collections_by_district"`
	SpecimensByDistrict   Counts   `json:"specimens_by_district"`
	SpeciesByDistrict     Crosstab `json:"species_by_district"`
}

type DataQuality struct {
	QualityFlags             Counts  `json:"quality_flags"`
	SurveillanceCompleteness float64 `json:"surveillance_completeness"`
	SpecimensCompleteness    float64 `json:"specimens_completeness"`
	SurveillanceMissingPct   Rates   `json:"surveillance_missing_pct"`
	SpecimensMissingPct      Rates   `json:"specimens_missing_pct"`
}

// Exposure is mosquitoes per person per night for indoor collections.
type Exposure struct {
	AvgMosquitoesPerPersonPerNight float64 `json:"avg_mosquitoes_per_person_per_night"`
	ByMethod                       Rates   `json:"by_method"`
}

// NamedValue is one named numeric metric.
type NamedValue struct {
	Name  string
	Value float64
}

// Numeric returns the numeric summary values in a stable order.
func (s Summary) Numeric() []NamedValue {
	return []NamedValue{
		{"total_collections", float64(s.TotalCollections)},
		{"total_specimens", float64(s.TotalSpecimens)},
		{"unique_sites", float64(s.UniqueSites)},
		{"unique_collectors", float64(s.UniqueCollectors)},
	}
}

// NamedCounts is one named count series.
type NamedCounts struct {
	Name   string
	Counts Counts
}

// Series returns each temporal metric by its serialized name.
func (t Temporal) Series() []NamedCounts {
	return []NamedCounts{
		{"collections_by_month", t.CollectionsByMonth},
		{"specimens_by_month", t.SpecimensByMonth},
		{"collections_by_quarter", t.CollectionsByQuarter},
	}
}
