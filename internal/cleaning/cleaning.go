// Package cleaning coerces raw surveillance and specimen frames into typed
// tables, fills categorical gaps, derives temporal and entomological fields
// and flags suspicious records.
package cleaning

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/records"
	"github.com/vectorcam/vectorinsight/internal/species"
)

// Data quality flags
const (
	FlagOK                  = "OK"
	FlagMorePeopleThanNets  = "Suspicious: More people than nets"
	FlagLargeHousehold      = "Suspicious: Large household"
	FlagMissingSpeciesID    = "Missing species ID"
	largeHouseholdThreshold = 50
)

// Abdomen statuses
const (
	StatusFullyFed   = "Fully Fed"
	StatusHalfGravid = "Half Gravid"
	StatusGravid     = "Gravid"
	StatusUnfed      = "Unfed"
)

var fedStatuses = map[string]struct{}{
	StatusFullyFed:   {},
	StatusHalfGravid: {},
	StatusGravid:     {},
}

// topSpeciesLogged bounds the species distribution written to the log.
const topSpeciesLogged = 10

// Temporal columns derived from the collection and capture dates. They are
// only emitted when the date column is present.
var (
	sessionTemporal  = []string{"CollectionYear", "CollectionMonth", "CollectionYearMonth", "CollectionQuarter"}
	specimenTemporal = []string{"CaptureYear", "CaptureMonth", "CaptureYearMonth", "CaptureQuarter"}
)

// Cleaner turns raw frames into cleaned tables. It never mutates its input
// and never drops a row.
type Cleaner struct {
	log logger.Logger
}

// New returns a Cleaner logging to log. A nil log discards output.
func New(log logger.Logger) *Cleaner {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	return &Cleaner{log: log.Module("cleaning")}
}

// CleanSurveillance decodes and cleans the surveillance frame.
func (c *Cleaner) CleanSurveillance(f *dataset.Frame) *records.SessionTable {
	tbl := records.Decode(records.SessionSchema, f)
	applyFills(tbl)

	for i := range tbl.Rows {
		s := &tbl.Rows[i]
		if d := s.SessionCollectionDate; d != nil {
			s.CollectionYear, s.CollectionMonth, s.CollectionYearMonth, s.CollectionQuarter = temporal(*d)
		}
		s.LlinUsageRate = llinUsageRate(s.NumPeopleSleptUnderLlin, s.NumPeopleSleptInHouse)
		s.DataQualityFlag = sessionFlag(s)
	}
	if tbl.Has("SessionCollectionDate") {
		tbl.MarkDerived(sessionTemporal...)
	}
	if tbl.Has("NumPeopleSleptInHouse") && tbl.Has("NumPeopleSleptUnderLlin") {
		tbl.MarkDerived("LlinUsageRate")
	}
	tbl.MarkDerived("DataQualityFlag")

	order, counts := countBy(tbl.Rows, func(s records.Session) string { return s.DataQualityFlag })
	fields := []logger.Field{logger.Int("records", tbl.Len())}
	for _, flag := range order {
		fields = append(fields, logger.Int(flag, counts[flag]))
	}
	c.log.Info("cleaned surveillance records", fields...)
	return tbl
}

// CleanSpecimens decodes and cleans the specimen frame. Species is always
// present and never empty afterwards.
func (c *Cleaner) CleanSpecimens(f *dataset.Frame) *records.SpecimenTable {
	tbl := records.Decode(records.SpecimenSchema, f)
	tbl.Ensure("Species")
	for i := range tbl.Rows {
		tbl.Rows[i].Species = species.Normalize(tbl.Rows[i].Species)
	}
	applyFills(tbl)

	for i := range tbl.Rows {
		s := &tbl.Rows[i]
		if d := s.CapturedAt; d != nil {
			s.CaptureYear, s.CaptureMonth, s.CaptureYearMonth, s.CaptureQuarter = temporal(*d)
		}
		s.SpeciesGroup = string(species.Categorize(s.Species))
		_, s.IsFed = fedStatuses[s.AbdomenStatus]
		s.IsUnfed = s.AbdomenStatus == StatusUnfed

		s.DataQualityFlag = FlagOK
		if species.IsUnidentified(s.Species) && s.Sex != species.NotApplicable {
			s.DataQualityFlag = FlagMissingSpeciesID
		}
	}
	if tbl.Has("CapturedAt") {
		tbl.MarkDerived(specimenTemporal...)
	}
	if tbl.Has("AbdomenStatus") {
		tbl.MarkDerived("IsFed", "IsUnfed")
	}
	tbl.MarkDerived("SpeciesGroup", "DataQualityFlag")

	c.log.Info("cleaned specimen records", logger.Int("records", tbl.Len()))
	order, counts := countBy(tbl.Rows, func(s records.Specimen) string { return s.Species })
	// stable sort keeps first-appearance order among ties
	slices.SortStableFunc(order, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })
	for _, name := range order[:min(len(order), topSpeciesLogged)] {
		c.log.Debug("species distribution", logger.String("species", name), logger.Int("count", counts[name]))
	}
	return tbl
}

// applyFills writes each present column's fill default into its null cells.
func applyFills[T any](tbl *records.Table[T]) {
	for _, col := range tbl.Schema.Columns {
		if col.Fill == "" || col.Derived || !tbl.Has(col.Name) {
			continue
		}
		for i := range tbl.Rows {
			if col.Format(&tbl.Rows[i]) == "" {
				col.Set(&tbl.Rows[i], col.Fill)
			}
		}
	}
}

func temporal(t time.Time) (year, month *int64, yearMonth string, quarter *int64) {
	y := int64(t.Year())
	m := int64(t.Month())
	q := (m-1)/3 + 1
	return &y, &m, t.Format("2006-01"), &q
}

func llinUsageRate(under, inHouse *float64) float64 {
	if under == nil || inHouse == nil || *inHouse == 0 {
		return 0
	}
	rate := *under / *inHouse * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// sessionFlag applies the quality checks in order; a later match overrides
// an earlier one.
func sessionFlag(s *records.Session) string {
	flag := FlagOK
	if s.NumPeopleSleptUnderLlin != nil && s.NumLlinsAvailable != nil &&
		*s.NumPeopleSleptUnderLlin > 2*(*s.NumLlinsAvailable) {
		flag = FlagMorePeopleThanNets
	}
	if s.NumPeopleSleptInHouse != nil && *s.NumPeopleSleptInHouse > largeHouseholdThreshold {
		flag = FlagLargeHousehold
	}
	return flag
}

func countBy[T any](rows []T, key func(T) string) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	for _, r := range rows {
		k := key(r)
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	return order, counts
}
