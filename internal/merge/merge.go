// Package merge left-joins cleaned specimens onto their sessions.
package merge

import (
	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/records"
)

// CollisionSuffix is appended to session columns whose name is already used
// by a specimen column.
const CollisionSuffix = "_session"

// keyColumn is the join key. It appears once in the flattened output.
const keyColumn = "SessionID"

// Projection lists the session columns carried onto each specimen, in
// output order. Only those present in the session table are used.
var Projection = []string{
	"SessionID",
	"SessionCollectionMethod",
	"SessionCollectionDate",
	"NumPeopleSleptInHouse",
	"SiteDistrict",
	"ProgramCountry",
	"WasIrsConducted",
	"NumLlinsAvailable",
	"LlinUsageRate",
}

// Row is one specimen with its session. Session is nil for orphans.
type Row struct {
	Specimen records.Specimen
	Session  *records.Session
}

// Orphan reports whether no session matched the specimen.
func (r Row) Orphan() bool { return r.Session == nil }

// Table is the merged result: one row per specimen, in specimen order.
type Table struct {
	Rows []Row

	specimens *records.SpecimenTable
	projected []string
}

// Merge joins specimens onto sessions by SessionID. When a session ID is
// duplicated the first session wins. Specimens without a matching session
// are kept with a nil session.
func Merge(sessions *records.SessionTable, specimens *records.SpecimenTable) *Table {
	t := &Table{specimens: specimens}
	if specimens == nil {
		return t
	}

	byID := make(map[int64]*records.Session)
	if sessions != nil {
		for _, col := range Projection {
			if sessions.Has(col) {
				t.projected = append(t.projected, col)
			}
		}
		for i := range sessions.Rows {
			s := &sessions.Rows[i]
			if s.SessionID == nil {
				continue
			}
			if _, dup := byID[*s.SessionID]; !dup {
				byID[*s.SessionID] = s
			}
		}
	}

	t.Rows = make([]Row, len(specimens.Rows))
	for i, sp := range specimens.Rows {
		t.Rows[i].Specimen = sp
		if sp.SessionID != nil {
			t.Rows[i].Session = byID[*sp.SessionID]
		}
	}
	return t
}

// Len returns the number of merged rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Projected returns the session columns present in the merged table.
func (t *Table) Projected() []string {
	return t.projected
}

// Frame flattens the table: specimen columns first, then the projected
// session columns, renamed with CollisionSuffix when they collide. Orphan
// rows have empty session cells.
func (t *Table) Frame() *dataset.Frame {
	if t.specimens == nil {
		return dataset.New()
	}
	specCols := t.specimens.Columns()
	taken := make(map[string]struct{}, len(specCols))
	for _, c := range specCols {
		taken[c] = struct{}{}
	}

	type sessionCol struct {
		col  records.Column[records.Session]
		name string
	}
	var sessCols []sessionCol
	for _, name := range t.projected {
		if name == keyColumn {
			continue
		}
		col, _ := records.SessionSchema.Lookup(name)
		out := name
		if _, clash := taken[name]; clash {
			out = name + CollisionSuffix
		}
		sessCols = append(sessCols, sessionCol{col: col, name: out})
	}

	header := make([]string, 0, len(specCols)+len(sessCols))
	header = append(header, specCols...)
	for _, sc := range sessCols {
		header = append(header, sc.name)
	}

	specFrame := t.specimens.Frame()
	f := dataset.New(header...)
	f.Records = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, specFrame.Records[r]...)
		for _, sc := range sessCols {
			if row.Session == nil {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, sc.col.Format(row.Session))
		}
		f.Records[r] = rec
	}
	return f
}
