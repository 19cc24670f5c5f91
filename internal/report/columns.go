package report

import (
	"strconv"

	"github.com/vectorcam/vectorinsight/internal/dataset"
)

// groupColumns names the wire columns of one species group. Status columns
// and sex columns use different prefixes in the report schema.
type groupColumns struct {
	group        Group
	statusPrefix string
	sexPrefix    string
}

var reportGroups = []groupColumns{
	{GroupGambiae, "anGambiae", "AnGambiae"},
	{GroupFunestus, "anFunestus", "AnFunestus"},
	{GroupOtherAnopheles, "anOther", "AnOther"},
	{GroupCulex, "Culex", "culex"},
	{GroupAedes, "Aedes", "aedes"},
	{GroupMansonia, "Mansonia", "mansonia"},
}

var statusSuffixes = []struct {
	status FeedingStatus
	suffix string
}{
	{Unfed, "UF"},
	{Fed, "F"},
	{Gravid, "G"},
}

var (
	sessionColumns = []string{"country", "district", "site", "houseNumber", "collectionMethod", "date"}
	totalColumns   = []string{"total", "totalAnopheles", "totalOtherMosquitoes", "maleAnopheles"}
	houseColumns   = []string{"peopleSlept", "irsSprayed", "monthsAgo", "totalLLIN", "llinType", "llinBrand", "peopleSleptUnderLlin"}
	siteColumns    = []string{"name", "site code", "health centre", "parish", "village", "coded house number",
		"Latitude", "Longitude", "House Type", "Title of Officer"}
)

// Columns returns the report header in wire order.
func Columns() []string {
	cols := make([]string, 0, 60)
	cols = append(cols, sessionColumns...)
	cols = append(cols, totalColumns...)
	for _, g := range reportGroups {
		for _, s := range statusSuffixes {
			cols = append(cols, g.statusPrefix+s.suffix)
		}
		cols = append(cols, g.sexPrefix+"Male", g.sexPrefix+"Female")
	}
	cols = append(cols, houseColumns...)
	cols = append(cols, siteColumns...)
	return cols
}

// Record renders r in Columns order.
func (r Row) Record() []string {
	itoa := strconv.Itoa
	rec := make([]string, 0, 60)
	rec = append(rec, r.Country, r.District, r.Site, r.HouseNumber, r.CollectionMethod, r.Date)
	rec = append(rec, itoa(r.Total), itoa(r.TotalAnopheles), itoa(r.TotalOtherMosquitoes), itoa(r.MaleAnopheles))
	for _, g := range reportGroups {
		for _, s := range statusSuffixes {
			rec = append(rec, itoa(r.FeedingCount(g.group, s.status)))
		}
		rec = append(rec, itoa(r.SexCount(g.group, Male)), itoa(r.SexCount(g.group, Female)))
	}
	rec = append(rec, r.PeopleSlept, r.IrsSprayed, r.MonthsAgo, r.TotalLLIN, r.LlinType, r.LlinBrand, r.PeopleSleptUnderLlin)
	// village, coded house number, coordinates and house type are not collected
	rec = append(rec, r.CollectorName, r.SiteCode, r.HealthCentre, r.Parish, "", "", "", "", "", r.OfficerTitle)
	return rec
}

// Frame renders rows as a report frame.
func Frame(rows []Row) *dataset.Frame {
	f := dataset.New(Columns()...)
	f.Records = make([][]string, len(rows))
	for i, r := range rows {
		f.Records[i] = r.Record()
	}
	return f
}
