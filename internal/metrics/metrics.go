// Package metrics computes the entomological metric bundle from cleaned
// surveillance and specimen tables.
//
// Every rate over an empty denominator and every mean of an empty set is 0,
// so the bundle never holds NaN or Inf values.
package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/merge"
	"github.com/vectorcam/vectorinsight/internal/records"
	"github.com/vectorcam/vectorinsight/internal/species"
)

const (
	irsYes      = "Yes"
	methodPSC   = "psc"
	methodCDC   = "cdc"
	fillUnknown = records.FillUnknown
)

// Engine computes metric bundles.
type Engine struct {
	log logger.Logger
}

// New returns an Engine logging to log. A nil log discards output.
func New(log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	return &Engine{log: log.Module("metrics")}
}

// Calculate computes every metric category. merged may be nil, in which case
// the exposure category is omitted. The inputs are not modified.
func (e *Engine) Calculate(sessions *records.SessionTable, specimens *records.SpecimenTable, merged *merge.Table) *Bundle {
	if sessions == nil {
		sessions = records.NewSessionTable(nil)
	}
	if specimens == nil {
		specimens = records.NewSpecimenTable(nil)
	}
	in := inputs{sessions: sessions, specimens: specimens, merged: merged}

	e.log.Info("calculating metrics",
		logger.Int("sessions", sessions.Len()),
		logger.Int("specimens", specimens.Len()))

	b := &Bundle{
		Summary:           in.summary(),
		Temporal:          in.temporal(),
		Species:           in.species(),
		CollectionMethods: in.collectionMethods(),
		Interventions:     in.interventions(),
		BloodFeeding:      in.bloodFeeding(),
		IndoorDensity:     in.indoorDensity(e.log),
		Geographic:        in.geographic(),
		DataQuality:       in.dataQuality(),
		Exposure:          in.exposure(e.log),
	}
	e.log.Info("metrics calculated")
	return b
}

type inputs struct {
	sessions  *records.SessionTable
	specimens *records.SpecimenTable
	merged    *merge.Table
}

// specimenMethod resolves the collection method of specimen i. The
// specimen's own denormalized copy is used when the specimen feed carries
// it, otherwise the method of the joined session.
func (in inputs) specimenMethod(i int) string {
	if in.specimens.Has("SessionCollectionMethod") {
		return in.specimens.Rows[i].SessionCollectionMethod
	}
	if in.merged != nil && i < in.merged.Len() {
		if s := in.merged.Rows[i].Session; s != nil {
			return s.SessionCollectionMethod
		}
	}
	return ""
}

func (in inputs) summary() Summary {
	s := Summary{
		TotalCollections: in.sessions.Len(),
		TotalSpecimens:   in.specimens.Len(),
		Countries:        []string{},
	}

	var start, end *time.Time
	districts := make(map[string]struct{})
	collectors := make(map[string]struct{})
	countries := make(map[string]struct{})
	for i := range in.sessions.Rows {
		row := &in.sessions.Rows[i]
		if d := row.SessionCollectionDate; d != nil {
			if start == nil || d.Before(*start) {
				start = d
			}
			if end == nil || d.After(*end) {
				end = d
			}
		}
		addDistinct(districts, row.SiteDistrict)
		addDistinct(collectors, row.SessionCollectorName)
		if row.ProgramCountry != "" {
			if _, seen := countries[row.ProgramCountry]; !seen {
				s.Countries = append(s.Countries, row.ProgramCountry)
			}
			countries[row.ProgramCountry] = struct{}{}
		}
	}
	if start != nil {
		s.DateRange = DateRange{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
	}
	s.UniqueSites = len(districts)
	s.UniqueCollectors = len(collectors)
	return s
}

func (in inputs) temporal() Temporal {
	t := Temporal{
		CollectionsByMonth:   Counts{},
		SpecimensByMonth:     Counts{},
		CollectionsByQuarter: Counts{},
	}
	for _, row := range in.sessions.Rows {
		count(t.CollectionsByMonth, row.CollectionYearMonth)
		if row.CollectionYear != nil && row.CollectionQuarter != nil {
			count(t.CollectionsByQuarter, QuarterKey(*row.CollectionYear, *row.CollectionQuarter))
		}
	}
	for _, row := range in.specimens.Rows {
		count(t.SpecimensByMonth, row.CaptureYearMonth)
	}
	return t
}

// QuarterKey formats a year and quarter as "YYYY-Qn".
func QuarterKey(year, quarter int64) string {
	return fmt.Sprintf("%d-Q%d", year, quarter)
}

func (in inputs) species() Species {
	s := Species{
		SpeciesCounts:     Counts{},
		SpeciesGroups:     Counts{},
		AnophelesCounts:   Counts{},
		AnophelesSexRatio: Counts{},
	}

	for _, row := range in.specimens.Rows {
		count(s.SpeciesCounts, row.Species)
		count(s.SpeciesGroups, row.SpeciesGroup)
		if species.IsAnopheles(row.Species) {
			s.TotalAnopheles++
			count(s.AnophelesCounts, row.Species)
			count(s.AnophelesSexRatio, row.Sex)
		}
	}
	s.SpeciesByMonth = crosstab(in.specimens.Rows,
		func(r records.Specimen) string { return r.Species },
		func(r records.Specimen) string { return r.CaptureYearMonth })
	s.AnophelesPercentage = percent(s.TotalAnopheles, in.specimens.Len())
	return s
}

func (in inputs) collectionMethods() CollectionMethods {
	c := CollectionMethods{
		CollectionsByMethod:    Counts{},
		SpecimensByMethod:      Counts{},
		SpecimensPerCollection: Rates{},
	}
	for _, row := range in.sessions.Rows {
		count(c.CollectionsByMethod, row.SessionCollectionMethod)
	}
	methods := make([]string, in.specimens.Len())
	for i := range in.specimens.Rows {
		methods[i] = in.specimenMethod(i)
		count(c.SpecimensByMethod, methods[i])
	}
	for method, n := range c.CollectionsByMethod {
		if n > 0 {
			c.SpecimensPerCollection[method] = float64(c.SpecimensByMethod[method]) / float64(n)
		}
	}

	c.SpeciesByMethod = Crosstab{}
	for i, row := range in.specimens.Rows {
		addCell(c.SpeciesByMethod, row.Species, methods[i])
	}
	zeroFill(c.SpeciesByMethod)
	return c
}

func (in inputs) interventions() Interventions {
	iv := Interventions{
		IRSCoverage: Counts{},
		LLINTypes:   Counts{},
		LLINBrands:  Counts{},
	}

	var llins, usage []float64
	yes := 0
	for _, row := range in.sessions.Rows {
		count(iv.IRSCoverage, row.WasIrsConducted)
		if row.WasIrsConducted == irsYes {
			yes++
		}
		if n := row.NumLlinsAvailable; n != nil {
			llins = append(llins, *n)
			iv.LLINCoverage.TotalLLINs += *n
			if *n > 0 {
				iv.LLINCoverage.HousesWithLLINs++
			}
		}
		usage = append(usage, row.LlinUsageRate)
		if row.LlinType != fillUnknown {
			count(iv.LLINTypes, row.LlinType)
		}
		if row.LlinBrand != fillUnknown {
			count(iv.LLINBrands, row.LlinBrand)
		}
	}
	iv.IRSRatePercent = percent(yes, in.sessions.Len())
	iv.LLINCoverage.AvgLLINsPerHouse = mean(llins)
	if in.sessions.Has("LlinUsageRate") {
		iv.AvgLLINUsageRate = mean(usage)
	}
	return iv
}

func (in inputs) bloodFeeding() BloodFeeding {
	bf := BloodFeeding{
		OverallFeedingStatus:   Counts{},
		AnophelesFeedingStatus: Counts{},
	}

	fed, anopheles, anophelesFed := 0, 0, 0
	for _, row := range in.specimens.Rows {
		count(bf.OverallFeedingStatus, row.AbdomenStatus)
		if row.IsFed {
			fed++
		}
		if species.IsAnopheles(row.Species) {
			anopheles++
			count(bf.AnophelesFeedingStatus, row.AbdomenStatus)
			if row.IsFed {
				anophelesFed++
			}
		}
	}
	if in.specimens.Has("IsFed") {
		bf.OverallFeedingRate = percent(fed, in.specimens.Len())
		bf.AnophelesFeedingRate = percent(anophelesFed, anopheles)
	}
	bf.FeedingBySpecies = crosstab(in.specimens.Rows,
		func(r records.Specimen) string { return r.AbdomenStatus },
		func(r records.Specimen) string { return r.Species })
	return bf
}

func isPSC(method string) bool {
	return strings.Contains(strings.ToLower(method), methodPSC)
}

func (in inputs) indoorDensity(log logger.Logger) IndoorDensity {
	var psc []*records.Session
	for i := range in.sessions.Rows {
		if isPSC(in.sessions.Rows[i].SessionCollectionMethod) {
			psc = append(psc, &in.sessions.Rows[i])
		}
	}
	if len(psc) == 0 {
		log.Warn("no PSC collections found, indoor resting density is zero")
		return IndoorDensity{}
	}

	mosquitoes := make(map[int64]int)
	anopheles := make(map[int64]int)
	for i, row := range in.specimens.Rows {
		if row.SessionID == nil || !isPSC(in.specimenMethod(i)) {
			continue
		}
		mosquitoes[*row.SessionID]++
		if species.IsAnopheles(row.Species) {
			anopheles[*row.SessionID]++
		}
	}

	perHouse := make([]float64, len(psc))
	perHouseAnopheles := make([]float64, len(psc))
	byDistrict := make(map[string][]float64)
	byMonth := make(map[string][]float64)
	for i, s := range psc {
		if s.SessionID != nil {
			perHouse[i] = float64(mosquitoes[*s.SessionID])
			perHouseAnopheles[i] = float64(anopheles[*s.SessionID])
		}
		if s.SiteDistrict != "" {
			byDistrict[s.SiteDistrict] = append(byDistrict[s.SiteDistrict], perHouse[i])
		}
		if s.SessionCollectionDate != nil {
			month := s.SessionCollectionDate.Format("2006-01")
			byMonth[month] = append(byMonth[month], perHouse[i])
		}
	}

	return IndoorDensity{
		TotalPSCCollections:   len(psc),
		AvgMosquitoesPerHouse: mean(perHouse),
		AvgAnophelesPerHouse:  mean(perHouseAnopheles),
		DensityByDistrict:     meanRates(byDistrict),
		DensityByMonth:        meanRates(byMonth),
	}
}

func (in inputs) geographic() Geographic {
	g := Geographic{
		CollectionsByDistrict: Counts{},
		SpecimensByDistrict:   Counts{},
	}
	for _, row := range in.sessions.Rows {
		count(g.CollectionsByDistrict, row.SiteDistrict)
	}
	for _, row := range in.specimens.Rows {
		count(g.SpecimensByDistrict, row.SiteDistrict)
	}
	g.SpeciesByDistrict = crosstab(in.specimens.Rows,
		func(r records.Specimen) string { return r.Species },
		func(r records.Specimen) string { return r.SiteDistrict })
	return g
}

func (in inputs) dataQuality() DataQuality {
	dq := DataQuality{QualityFlags: Counts{}}
	for _, row := range in.sessions.Rows {
		count(dq.QualityFlags, row.DataQualityFlag)
	}
	sessFrame := in.sessions.Frame()
	dq.SurveillanceCompleteness, dq.SurveillanceMissingPct = completeness(sessFrame.Header, sessFrame.Records)
	specFrame := in.specimens.Frame()
	dq.SpecimensCompleteness, dq.SpecimensMissingPct = completeness(specFrame.Header, specFrame.Records)
	return dq
}

// completeness returns 100 minus the null percentage over all cells, and
// the per-column null percentage for columns with at least one null.
func completeness(header []string, rows [][]string) (float64, Rates) {
	missing := Rates{}
	if len(rows) == 0 || len(header) == 0 {
		return 100, missing
	}
	total := 0
	for c, name := range header {
		nulls := 0
		for _, rec := range rows {
			if rec[c] == "" {
				nulls++
			}
		}
		total += nulls
		if nulls > 0 {
			missing[name] = percent(nulls, len(rows))
		}
	}
	return 100 - percent(total, len(rows)*len(header)), missing
}

func (in inputs) exposure(log logger.Logger) *Exposure {
	if in.merged == nil {
		log.Warn("merged table not available, skipping exposure metrics")
		return nil
	}

	type sessionExposure struct {
		count  int
		people float64
		method string
	}
	var order []int64
	bySession := make(map[int64]*sessionExposure)
	for i, row := range in.merged.Rows {
		s := row.Session
		if s == nil || s.SessionID == nil || s.NumPeopleSleptInHouse == nil || *s.NumPeopleSleptInHouse <= 0 {
			continue
		}
		method := in.specimenMethod(i)
		lower := strings.ToLower(method)
		if !strings.Contains(lower, methodPSC) && !strings.Contains(lower, methodCDC) {
			continue
		}
		agg, ok := bySession[*s.SessionID]
		if !ok {
			agg = &sessionExposure{people: *s.NumPeopleSleptInHouse, method: method}
			bySession[*s.SessionID] = agg
			order = append(order, *s.SessionID)
		}
		agg.count++
	}

	ex := &Exposure{ByMethod: Rates{}}
	perPerson := make([]float64, 0, len(order))
	byMethod := make(map[string][]float64)
	for _, id := range order {
		agg := bySession[id]
		v := float64(agg.count) / agg.people
		perPerson = append(perPerson, v)
		byMethod[agg.method] = append(byMethod[agg.method], v)
	}
	ex.AvgMosquitoesPerPersonPerNight = mean(perPerson)
	ex.ByMethod = meanRates(byMethod)
	return ex
}

func count(c Counts, key string) {
	if key != "" {
		c[key]++
	}
}

func addDistinct(set map[string]struct{}, key string) {
	if key != "" {
		set[key] = struct{}{}
	}
}

func addCell(ct Crosstab, outer, inner string) {
	if outer == "" || inner == "" {
		return
	}
	if ct[outer] == nil {
		ct[outer] = Counts{}
	}
	ct[outer][inner]++
}

// zeroFill gives every outer key an entry for every inner key seen anywhere.
func zeroFill(ct Crosstab) {
	inner := make(map[string]struct{})
	for _, row := range ct {
		for k := range row {
			inner[k] = struct{}{}
		}
	}
	for _, row := range ct {
		for k := range inner {
			if _, ok := row[k]; !ok {
				row[k] = 0
			}
		}
	}
}

func crosstab[T any](rows []T, outer, inner func(T) string) Crosstab {
	ct := Crosstab{}
	for _, r := range rows {
		addCell(ct, outer(r), inner(r))
	}
	zeroFill(ct)
	return ct
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := stat.Mean(xs, nil)
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}

func meanRates(groups map[string][]float64) Rates {
	out := make(Rates, len(groups))
	for k, xs := range groups {
		out[k] = mean(xs)
	}
	return out
}
