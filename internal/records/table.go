package records

import (
	"slices"

	"github.com/vectorcam/vectorinsight/internal/dataset"
)

// Table is an ordered list of typed rows together with the set of columns
// present in the source. Column presence is decided once, when the table is
// decoded, and consulted through Has.
type Table[T any] struct {
	Schema *Schema[T]
	Rows   []T

	source  []string
	present map[string]struct{}
}

// NewTable returns an empty table whose source columns are header.
func NewTable[T any](schema *Schema[T], header []string) *Table[T] {
	t := &Table[T]{
		Schema:  schema,
		source:  slices.Clone(header),
		present: make(map[string]struct{}, len(header)),
	}
	for _, name := range header {
		t.present[name] = struct{}{}
	}
	return t
}

// Decode reads every record of f into a new table. Recognised columns are
// coerced with the schema; every other cell is kept verbatim in the row's
// extra map. Cells beyond the header of a ragged record are ignored and
// missing trailing cells stay null. The frame is not modified.
func Decode[T any](schema *Schema[T], f *dataset.Frame) *Table[T] {
	t := NewTable(schema, f.Header)
	t.Rows = make([]T, len(f.Records))

	cols := make([]*Column[T], len(f.Header))
	for i, name := range f.Header {
		if c, ok := schema.Lookup(name); ok {
			cols[i] = &c
		}
	}

	for r, rec := range f.Records {
		row := &t.Rows[r]
		for i, cell := range rec[:min(len(rec), len(cols))] {
			if c := cols[i]; c != nil {
				c.Set(row, cell)
				continue
			}
			schema.Extra(row)[f.Header[i]] = cell
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether col is present, either from the source or as a
// derived column added by the cleaner.
func (t *Table[T]) Has(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.present[col]
	return ok
}

// Ensure appends col to the source columns if it is not already present.
func (t *Table[T]) Ensure(col string) {
	if t.Has(col) {
		return
	}
	t.source = append(t.source, col)
	t.present[col] = struct{}{}
}

// MarkDerived records the named derived columns as present. Names that are
// not derived schema columns are ignored.
func (t *Table[T]) MarkDerived(names ...string) {
	for _, name := range names {
		if c, ok := t.Schema.Lookup(name); ok && c.Derived {
			t.present[name] = struct{}{}
		}
	}
}

// Columns returns the present columns: source columns in source order, then
// derived columns that were not in the source.
func (t *Table[T]) Columns() []string {
	out := slices.Clone(t.source)
	seen := make(map[string]struct{}, len(out))
	for _, name := range out {
		seen[name] = struct{}{}
	}
	for _, name := range t.Schema.Derived() {
		if _, ok := seen[name]; ok {
			continue
		}
		if t.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Frame renders the table back to text cells in Columns order.
func (t *Table[T]) Frame() *dataset.Frame {
	header := t.Columns()
	f := dataset.New(header...)
	f.Records = make([][]string, len(t.Rows))

	cols := make([]*Column[T], len(header))
	for i, name := range header {
		if c, ok := t.Schema.Lookup(name); ok {
			cols[i] = &c
		}
	}

	for r := range t.Rows {
		row := &t.Rows[r]
		rec := make([]string, len(header))
		for i, name := range header {
			if c := cols[i]; c != nil {
				rec[i] = c.Format(row)
				continue
			}
			rec[i] = (*t.Schema.extra(row))[name]
		}
		f.Records[r] = rec
	}
	return f
}
