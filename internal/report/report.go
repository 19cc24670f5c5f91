// Package report aggregates specimens into one row per surveyed house and
// serializes the rows to the wide VectorCam report schema.
package report

import (
	"strings"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/records"
)

// Group is a report species group.
type Group int

const (
	GroupGambiae Group = iota
	GroupFunestus
	GroupOtherAnopheles
	GroupCulex
	GroupAedes
	GroupMansonia
	// GroupUnclassified collects specimens matching no other group. It has
	// no columns in the report schema.
	GroupUnclassified
)

// Anopheles reports whether g is one of the Anopheles groups.
func (g Group) Anopheles() bool {
	return g == GroupGambiae || g == GroupFunestus || g == GroupOtherAnopheles
}

// FeedingStatus is the abdomen state bucket.
type FeedingStatus int

const (
	Unfed FeedingStatus = iota
	Fed
	Gravid
)

// Sex of a specimen. SexOther is counted in no sex column.
type Sex int

const (
	SexOther Sex = iota
	Male
	Female
)

// groupRule maps a lowercase species substring to a group. First match wins.
type groupRule struct {
	substring string
	group     Group
}

var groupRules = []groupRule{
	{"gambiae", GroupGambiae},
	{"funestus", GroupFunestus},
	{"anopheles", GroupOtherAnopheles},
	{"culex", GroupCulex},
	{"aedes", GroupAedes},
	{"mansonia", GroupMansonia},
}

// ClassifySpecies returns the report group of a species label.
func ClassifySpecies(label string) Group {
	lower := strings.ToLower(label)
	for _, r := range groupRules {
		if strings.Contains(lower, r.substring) {
			return r.group
		}
	}
	return GroupUnclassified
}

// ClassifyFeeding buckets an abdomen status. Unrecognised values count as unfed.
func ClassifyFeeding(status string) FeedingStatus {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "unfed"):
		return Unfed
	case strings.Contains(lower, "fed"), strings.Contains(lower, "blood"):
		return Fed
	case strings.Contains(lower, "gravid"):
		return Gravid
	default:
		return Unfed
	}
}

// ClassifySex buckets a sex label. "female" is tested first since it
// contains "male".
func ClassifySex(sex string) Sex {
	lower := strings.ToLower(sex)
	switch {
	case strings.Contains(lower, "female"):
		return Female
	case strings.Contains(lower, "male"):
		return Male
	default:
		return SexOther
	}
}

// Row is the aggregate for one session.
type Row struct {
	SessionID int64

	Country          string
	District         string
	Site             string
	HouseNumber      string
	CollectionMethod string
	Date             string

	Total                int
	TotalAnopheles       int
	TotalOtherMosquitoes int
	MaleAnopheles        int

	Feeding map[Group]map[FeedingStatus]int
	Sexes   map[Group]map[Sex]int

	PeopleSlept          string
	IrsSprayed           string
	MonthsAgo            string
	TotalLLIN            string
	LlinType             string
	LlinBrand            string
	PeopleSleptUnderLlin string

	CollectorName string
	SiteCode      string
	HealthCentre  string
	Parish        string
	OfficerTitle  string
}

func newRow(id int64) Row {
	return Row{
		SessionID: id,
		Feeding:   make(map[Group]map[FeedingStatus]int),
		Sexes:     make(map[Group]map[Sex]int),
	}
}

// FeedingCount returns the number of specimens of g in status s.
func (r Row) FeedingCount(g Group, s FeedingStatus) int {
	return r.Feeding[g][s]
}

// SexCount returns the number of specimens of g with sex s.
func (r Row) SexCount(g Group, s Sex) int {
	return r.Sexes[g][s]
}

func (r *Row) add(sp *records.Specimen) {
	g := ClassifySpecies(sp.Species)

	if r.Feeding[g] == nil {
		r.Feeding[g] = make(map[FeedingStatus]int)
	}
	r.Feeding[g][ClassifyFeeding(sp.AbdomenStatus)]++

	sex := ClassifySex(sp.Sex)
	if sex != SexOther {
		if r.Sexes[g] == nil {
			r.Sexes[g] = make(map[Sex]int)
		}
		r.Sexes[g][sex]++
	}

	r.Total++
	if g.Anopheles() {
		r.TotalAnopheles++
		if sex == Male {
			r.MaleAnopheles++
		}
	} else {
		r.TotalOtherMosquitoes++
	}
}

// Build aggregates specimens per distinct session ID, in order of first
// appearance in sessions. Sessions without an ID are skipped. Metadata is
// taken from the first session row of each ID.
func Build(sessions *records.SessionTable, specimens *records.SpecimenTable) []Row {
	if sessions == nil {
		return nil
	}

	bySession := make(map[int64][]int)
	if specimens != nil {
		for i, sp := range specimens.Rows {
			if sp.SessionID != nil {
				bySession[*sp.SessionID] = append(bySession[*sp.SessionID], i)
			}
		}
	}

	meta := metaReader{tbl: sessions}
	seen := make(map[int64]struct{})
	var rows []Row
	for i := range sessions.Rows {
		s := &sessions.Rows[i]
		if s.SessionID == nil {
			continue
		}
		id := *s.SessionID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		row := newRow(id)
		meta.fill(&row, s)
		for _, idx := range bySession[id] {
			row.add(&specimens.Rows[idx])
		}
		rows = append(rows, row)
	}
	return rows
}

// metaReader copies session columns verbatim, yielding "" for columns
// absent from the table.
type metaReader struct {
	tbl *records.SessionTable
}

func (m metaReader) get(s *records.Session, col string) string {
	if !m.tbl.Has(col) {
		return ""
	}
	c, ok := records.SessionSchema.Lookup(col)
	if !ok {
		return s.Extra[col]
	}
	return c.Format(s)
}

func (m metaReader) fill(r *Row, s *records.Session) {
	r.Country = m.get(s, "ProgramCountry")
	r.District = m.get(s, "SiteDistrict")
	r.Site = m.get(s, "SiteID")
	r.HouseNumber = dataset.FormatInt(r.SessionID)
	if m.tbl.Has("SessionHouseNumber") {
		r.HouseNumber = m.get(s, "SessionHouseNumber")
	}
	r.CollectionMethod = m.get(s, "SessionCollectionMethod")
	r.Date = m.get(s, "SessionCollectionDate")

	r.PeopleSlept = m.get(s, "NumPeopleSleptInHouse")
	r.IrsSprayed = m.get(s, "WasIrsConducted")
	r.MonthsAgo = m.get(s, "MonthsSinceIrs")
	r.TotalLLIN = m.get(s, "NumLlinsAvailable")
	r.LlinType = m.get(s, "LlinType")
	r.LlinBrand = m.get(s, "LlinBrand")
	r.PeopleSleptUnderLlin = m.get(s, "NumPeopleSleptUnderLlin")

	r.CollectorName = m.get(s, "SessionCollectorName")
	r.SiteCode = m.get(s, "SiteID")
	r.HealthCentre = m.get(s, "SiteHealthCenter")
	r.Parish = m.get(s, "SiteParish")
	r.OfficerTitle = m.get(s, "SessionCollectorTitle")
}
